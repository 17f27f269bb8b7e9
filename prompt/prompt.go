// Package prompt asks the user to pick one entry of a list.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/rpdl/rpdl/style"
)

// ErrNoSelection is returned when there is nothing to choose from or the
// input ends before a valid choice was made.
var ErrNoSelection = errors.New("no selection made")

// SelectIndex prints labels as "[i] label" and reads lines from in until one
// holds a decimal index into labels.
func SelectIndex(in io.Reader, out io.Writer, labels []string) (int, error) {
	if len(labels) == 0 {
		return 0, ErrNoSelection
	}

	for i, label := range labels {
		fmt.Fprintf(out, "%s %s\n", style.Faint(fmt.Sprintf("[%d]", i)), label)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "Choose a quality [0-%d]: ", len(labels)-1)

		if !scanner.Scan() {
			fmt.Fprintln(out)
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("%w: %w", ErrNoSelection, err)
			}
			return 0, ErrNoSelection
		}

		input := strings.TrimSpace(scanner.Text())
		index, err := strconv.Atoi(input)
		switch {
		case err != nil:
			fmt.Fprintf(out, "%q is not a number\n", input)
		case index < 0 || index >= len(labels):
			fmt.Fprintf(out, "%d is out of range\n", index)
		default:
			return index, nil
		}
	}
}

// Fancy shows an arrow-key picker on the terminal.
func Fancy(labels []string) (int, error) {
	if len(labels) == 0 {
		return 0, ErrNoSelection
	}

	var index int
	err := survey.AskOne(&survey.Select{
		Message: "Choose a quality",
		Options: labels,
	}, &index)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNoSelection, err)
	}

	return index, nil
}
