package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is replaced in tests.
var readPassword = term.ReadPassword

// readLine returns the next line without its line ending. A final line
// without a newline is still returned; done reports that input ended.
func readLine(reader *bufio.Reader) (line string, done bool, err error) {
	line, err = reader.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	switch {
	case errors.Is(err, io.EOF):
		return line, true, nil
	case err != nil:
		return "", true, err
	}
	return line, false, nil
}

// GetSimpleText asks for a single line. Empty input at end of stream is
// io.EOF.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n> ", prompt); err != nil {
		return "", err
	}
	line, done, err := readLine(reader)
	if err != nil {
		return "", err
	}
	if done && line == "" {
		return "", io.EOF
	}
	return strings.TrimSpace(line), nil
}

// GetSecret reads a passphrase from the terminal with echo off. Callers
// wipe the result once done with it.
func GetSecret(prompt string, w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprintf(w, "%s: ", prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	// echo is off, so the user's Enter never reached the screen
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetMultiline collects lines until an empty one or end of input and joins
// them with '\n'.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n(press Enter on an empty line to finish)\n", prompt); err != nil {
		return "", err
	}

	var b strings.Builder
	for {
		line, done, err := readLine(reader)
		if err != nil {
			return "", err
		}
		if line == "" {
			break
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if done {
			break
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// GetTags reads one line of comma-separated tags. Blank items are dropped;
// an empty line yields nil.
func GetTags(reader *bufio.Reader, prompt string, w io.Writer) ([]string, error) {
	line, err := GetSimpleText(reader, prompt+" (comma-separated)", w)
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, t := range strings.Split(line, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags, nil
}
