package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalConfirm returns a confirmation function that prompts on the
// given streams. It answers true for an empty line or "y"/"yes", false
// for anything else. The read is abandoned when ctx expires.
func TerminalConfirm(in io.Reader, out io.Writer) func(ctx context.Context) (bool, error) {
	reader := bufio.NewReader(in)

	return func(ctx context.Context) (bool, error) {
		fmt.Fprint(out, "Press Enter once you are logged in (or type 'n' to cancel): ")

		type result struct {
			line string
			err  error
		}
		ch := make(chan result, 1)
		go func() {
			line, err := reader.ReadString('\n')
			ch <- result{line: line, err: err}
		}()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case res := <-ch:
			if res.err != nil && res.line == "" {
				return false, res.err
			}
			answer := strings.ToLower(strings.TrimSpace(res.line))
			return answer == "" || answer == "y" || answer == "yes", nil
		}
	}
}

// readSecret reads a line without echo when in is an interactive
// terminal, falling back to a plain read otherwise.
func readSecret(in *os.File, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	if term.IsTerminal(int(in.Fd())) {
		raw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
