// Package protocol implements the line-based wire protocol of spec.md §6:
// command parsing, value escaping, and reply formatting. Byte-exact
// grounding on original_source/kvstore/network/protocol.py — the same
// escape set, the same `||` batch separator, the same per-command arity
// checks — translated into Go's explicit-error-return idiom in place of
// Python's raised ValueError.
package protocol

import (
	"fmt"
	"strings"
)

// BatchSeparator joins keys/values within a BATCHPUT or READRANGE reply.
const BatchSeparator = "||"

// Command identifies a parsed request.
type Command string

const (
	CommandPut            Command = "PUT"
	CommandBatchPut       Command = "BATCHPUT"
	CommandRead           Command = "READ"
	CommandReadRange      Command = "READRANGE"
	CommandDelete         Command = "DELETE"
	CommandReplicatePut   Command = "REPLICATE_PUT"
	CommandReplicateBatch Command = "REPLICATE_BATCHPUT"
	CommandReplicateDel   Command = "REPLICATE_DELETE"
)

// Request is a parsed client message. Which fields are populated depends
// on Command: Key/Value for PUT, Key holding the start and Value the end
// key for READRANGE, Keys/Values for BATCHPUT and REPLICATE_BATCHPUT.
type Request struct {
	Command Command
	Key     []byte
	Value   []byte
	Keys    [][]byte
	Values  [][]byte
}

// escapeReplacer replaces each special byte sequence in order, matching
// protocol.py's chained str.replace calls exactly (backslash first, so
// later substitutions of \n/\r/\t never re-touch an already-escaped
// backslash).
var escapeReplacer = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Escape replaces literal backslash, newline, carriage-return, and tab
// bytes with their two-byte backslash escapes.
func Escape(data []byte) []byte {
	return []byte(escapeReplacer.Replace(string(data)))
}

// Unescape is the exact inverse of Escape. It decodes in a single
// left-to-right pass, so the second byte of an escaped backslash is never
// read as the start of another escape sequence; a backslash followed by
// any other byte is kept as is.
func Unescape(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+1 < len(data) {
			decoded := map[byte]byte{'\\': '\\', 'n': '\n', 'r': '\r', 't': '\t'}
			if b, ok := decoded[data[i+1]]; ok {
				out = append(out, b)
				i++
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

// splitN mimics Python's bytes.split(sep, maxsplit): at most n+1 parts,
// the final part keeping any remaining separators un-split.
func splitN(data []byte, sep byte, n int) [][]byte {
	parts := make([][]byte, 0, n+1)
	rest := data
	for i := 0; i < n; i++ {
		idx := indexByte(rest, sep)
		if idx < 0 {
			break
		}
		parts = append(parts, rest[:idx])
		rest = rest[idx+1:]
	}
	parts = append(parts, rest)
	return parts
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func batchSplit(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	return bytesSplitAll(data, []byte(BatchSeparator))
}

func bytesSplitAll(data, sep []byte) [][]byte {
	var out [][]byte
	for {
		idx := bytesIndex(data, sep)
		if idx < 0 {
			out = append(out, data)
			return out
		}
		out = append(out, data[:idx])
		data = data[idx+len(sep):]
	}
}

func bytesIndex(data, sep []byte) int {
	n, m := len(data), len(sep)
	if m == 0 || m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if string(data[i:i+m]) == string(sep) {
			return i
		}
	}
	return -1
}

// Parse parses one line (without its trailing \n) into a Request.
func Parse(line []byte) (Request, error) {
	parts := splitN(line, ' ', 2)
	command := Command(strings.ToUpper(string(parts[0])))

	if command == "REPLICATE" {
		return parseReplicate(line, parts)
	}

	switch command {
	case CommandPut:
		if len(parts) < 2 {
			return Request{}, fmt.Errorf("PUT requires key")
		}
		key := parts[1]
		var value []byte
		if len(parts) == 3 {
			value = parts[2]
		}
		return Request{Command: CommandPut, Key: key, Value: Unescape(value)}, nil

	case CommandBatchPut:
		if len(parts) != 3 {
			return Request{}, fmt.Errorf("BATCHPUT requires keys and values")
		}
		keys := batchSplit(parts[1])
		values := batchSplit(parts[2])
		if len(keys) != len(values) {
			return Request{}, fmt.Errorf("BATCHPUT key/value count mismatch")
		}
		for i := range values {
			values[i] = Unescape(values[i])
		}
		return Request{Command: CommandBatchPut, Keys: keys, Values: values}, nil

	case CommandReadRange:
		if len(parts) != 3 {
			return Request{}, fmt.Errorf("READRANGE requires start_key and end_key")
		}
		return Request{Command: CommandReadRange, Key: parts[1], Value: parts[2]}, nil

	case CommandRead, CommandDelete:
		if len(parts) != 2 {
			return Request{}, fmt.Errorf("%s requires key", command)
		}
		return Request{Command: command, Key: parts[1]}, nil

	default:
		return Request{}, fmt.Errorf("unknown command: %s", command)
	}
}

func parseReplicate(line []byte, parts [][]byte) (Request, error) {
	if len(parts) < 2 {
		return Request{}, fmt.Errorf("REPLICATE requires subcommand")
	}

	subparts := splitN(line, ' ', 3)
	subcommand := strings.ToUpper(string(subparts[1]))

	switch subcommand {
	case "PUT":
		if len(subparts) != 4 {
			return Request{}, fmt.Errorf("REPLICATE PUT requires key and value")
		}
		return Request{Command: CommandReplicatePut, Key: subparts[2], Value: Unescape(subparts[3])}, nil

	case "BATCHPUT":
		if len(subparts) != 4 {
			return Request{}, fmt.Errorf("REPLICATE BATCHPUT requires keys and values")
		}
		keys := batchSplit(subparts[2])
		values := batchSplit(subparts[3])
		if len(keys) != len(values) {
			return Request{}, fmt.Errorf("REPLICATE BATCHPUT key/value count mismatch")
		}
		for i := range values {
			values[i] = Unescape(values[i])
		}
		return Request{Command: CommandReplicateBatch, Keys: keys, Values: values}, nil

	case "DELETE":
		if len(subparts) != 3 {
			return Request{}, fmt.Errorf("REPLICATE DELETE requires key")
		}
		return Request{Command: CommandReplicateDel, Key: subparts[2]}, nil

	default:
		return Request{}, fmt.Errorf("unknown REPLICATE subcommand: %s", subcommand)
	}
}

// FormatOK formats the standard success reply.
func FormatOK() []byte { return []byte("OK") }

// FormatNotFound formats the standard not-found reply.
func FormatNotFound() []byte { return []byte("NOT_FOUND") }

// FormatError formats an error reply, kept as a distinct helper (mirroring
// protocol.py's format_error) rather than folded into one generic
// formatter, for parity with spec.md §6's reply table.
func FormatError(message string) []byte {
	return []byte("ERROR: " + message)
}

// FormatValue formats a single escaped value reply (READ).
func FormatValue(value []byte) []byte {
	return Escape(value)
}

// FormatRange formats a READRANGE reply as k1||v1||k2||v2||... with each
// value escaped.
func FormatRange(keys []string, values [][]byte) []byte {
	parts := make([]string, 0, len(keys)*2)
	for i, k := range keys {
		parts = append(parts, k, string(Escape(values[i])))
	}
	return []byte(strings.Join(parts, BatchSeparator))
}

// BuildReplicatePut builds the command line (without trailing \n) a
// primary sends to replicate a put.
func BuildReplicatePut(key, value []byte) []byte {
	return []byte("REPLICATE PUT " + string(key) + " " + string(Escape(value)))
}

// BuildReplicateDelete builds the command line for a replicated delete.
func BuildReplicateDelete(key []byte) []byte {
	return []byte("REPLICATE DELETE " + string(key))
}

// BuildReplicateBatchPut builds the command line for a replicated batch
// put.
func BuildReplicateBatchPut(keys, values [][]byte) []byte {
	keyParts := make([]string, len(keys))
	for i, k := range keys {
		keyParts[i] = string(k)
	}
	valueParts := make([]string, len(values))
	for i, v := range values {
		valueParts[i] = string(Escape(v))
	}
	return []byte("REPLICATE BATCHPUT " + strings.Join(keyParts, BatchSeparator) + " " + strings.Join(valueParts, BatchSeparator))
}
