package save

import (
	"bufio"
	"io"
	"strings"
)

// CommitMessagePrompter collects a commit message from the user.
type CommitMessagePrompter interface {
	PromptCommitMessage(prompt string) (string, error)
}

// IOCommitMessagePrompter reads a single-line commit message from an io.Reader.
type IOCommitMessagePrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOCommitMessagePrompter constructs a prompter from the provided reader and writer.
func NewIOCommitMessagePrompter(input io.Reader, output io.Writer) *IOCommitMessagePrompter {
	return &IOCommitMessagePrompter{reader: bufio.NewReader(input), writer: output}
}

// PromptCommitMessage writes the prompt and returns the trimmed response line.
func (prompter *IOCommitMessagePrompter) PromptCommitMessage(prompt string) (string, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return "", writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && readError != io.EOF {
		return "", readError
	}

	return strings.TrimSpace(response), nil
}
