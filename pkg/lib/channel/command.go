package channel

import (
	"strconv"
	"strings"
)

// Terminator ends every command line. It is a token of its own, so encoded
// commands carry a space before the newline.
const Terminator = "\n"

// LoadCommand builds `start <driver> [-n "<device>"] \n`.
func LoadCommand(driver, device string) []string {
	cmd := []string{"start", driver}
	if device != "" {
		cmd = append(cmd, "-n", quote(device))
	}
	return append(cmd, Terminator)
}

// UnloadCommand builds `stop <driver> "<device>" \n`.
func UnloadCommand(driver, device string) []string {
	return []string{"stop", driver, quote(device), Terminator}
}

// Encode joins the tokens into the single line written to the FIFO.
func Encode(tokens []string) string {
	return strings.Join(tokens, " ")
}

// quote wraps a device name in double quotes verbatim. The server's parser
// needs them for names containing spaces.
func quote(name string) string {
	return `"` + name + `"`
}

// displayLine is the encoded command without its terminator, for logs.
func displayLine(tokens []string) string {
	return strconv.Quote(strings.TrimSuffix(Encode(tokens), " "+Terminator))
}
