package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// promptConfirmer asks on the terminal. Anything but y or yes declines.
type promptConfirmer struct {
	in        io.Reader
	out       io.Writer
	assumeYes *bool
}

func (p *promptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if p.assumeYes != nil && *p.assumeYes {
		return true, nil
	}
	if _, err := fmt.Fprintf(p.out, "%s [y/N]: ", prompt); err != nil {
		return false, err
	}

	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(p.in).ReadString('\n')
		answer <- line
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line := <-answer:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
