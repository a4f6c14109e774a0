// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const binTesseract = "tesseract"

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	return cmd.Run()
}

var defaultExec executor = &osExecutor{}

// Command recognizes text by shelling out to the tesseract binary, reading
// the page image from stdin and the text from stdout. It is the fallback
// when the linked library is not built in or a different tesseract install
// should be used.
type Command struct {
	exec executor
}

// NewCommand returns the exec-backed Tesseract engine. It verifies that the
// tesseract binary exists on PATH and responds to a version probe.
func NewCommand() (*Command, error) {
	return newCommand(defaultExec)
}

func newCommand(exec executor) (*Command, error) {
	if _, err := exec.LookPath(binTesseract); err != nil {
		return nil, fmt.Errorf("%w: %s not found on PATH", ErrUnavailable, binTesseract)
	}
	if err := exec.RunSilent(binTesseract, "--version"); err != nil {
		return nil, fmt.Errorf("%w: %s not operational: %v", ErrUnavailable, binTesseract, err)
	}
	return &Command{exec: exec}, nil
}

func (c *Command) Name() string { return binTesseract }

// Recognize pipes a PNG-encoded page image through tesseract.
func (c *Command) Recognize(ctx context.Context, pngImage []byte, lang string) (string, error) {
	args := []string{"stdin", "stdout"}
	if lang != "" {
		args = append(args, "-l", lang)
	}

	var out bytes.Buffer
	if err := c.exec.RunPiped(ctx, binTesseract, args, bytes.NewReader(pngImage), &out); err != nil {
		return "", fmt.Errorf("running %s: %w", binTesseract, err)
	}
	return strings.TrimSpace(out.String()), nil
}

// NewEngine builds the configured OCR engine.
func NewEngine(kind string) (Engine, error) {
	switch kind {
	case "", "gosseract":
		return NewGosseract(), nil
	case binTesseract:
		return NewCommand()
	default:
		return nil, fmt.Errorf("unknown ocr engine %q (want gosseract or tesseract)", kind)
	}
}
