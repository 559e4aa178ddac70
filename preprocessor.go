package idlc

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/hashicorp/logutils"
)

// Preprocessor runs an external C preprocessor (cpp by default) over
// IDL source before it reaches the grammar, so `#include`/`#define`
// directives resolve the way the original C++ implementation's
// PreprocessorContext does.
type Preprocessor struct {
	cfg *Config
}

func NewPreprocessor(cfg *Config) *Preprocessor {
	return &Preprocessor{cfg: cfg}
}

// stderrFilter wraps a spawned preprocessor's stderr with level
// filtering: lines tagged `[DEBUG]` are dropped, while untagged lines
// (which is all cpp itself writes, `-H` include-depth output included)
// pass through to the buffer. exec logs the buffer at Warn only when the
// command fails.
func stderrFilter() (*logutils.LevelFilter, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	filter := &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "WARN", "ERROR"},
		MinLevel: logutils.LogLevel("WARN"),
		Writer:   buf,
	}
	return filter, buf
}

func (pp *Preprocessor) includeArgs() []string {
	flag := pp.cfg.GetString("include_flag")
	var args []string
	for _, path := range pp.cfg.GetStringSlice("include_paths") {
		args = append(args, flag+path)
	}
	return args
}

// PreprocessFile runs the preprocessor over an on-disk file, matching
// PreprocessorContext::preprocess_file.
func (pp *Preprocessor) PreprocessFile(path string) (string, error) {
	args := append(pp.includeArgs(), strings.Fields(pp.cfg.GetString("preprocessor_flags"))...)
	args = append(args, path)
	return pp.exec(args, nil)
}

// PreprocessString runs the preprocessor over an in-memory IDL string,
// using whichever strategy Config selects.
func (pp *Preprocessor) PreprocessString(idl string) (string, error) {
	switch pp.cfg.Strategy() {
	case StrategyTemporaryFile:
		return pp.preprocessTemporaryFile(idl)
	default:
		return pp.preprocessPipeStdin(idl)
	}
}

// preprocessPipeStdin streams idl to the preprocessor's stdin. Unlike
// the original's `echo "<escaped>" | cpp` shell pipeline, this writes
// directly to the child's stdin pipe — no shell is involved, so the
// quote-escaping below exists only to keep the payload byte-identical
// to what the original would have emitted after its `replace_all_string`
// pass, for implementations that rely on that exact escaping.
func (pp *Preprocessor) preprocessPipeStdin(idl string) (string, error) {
	escaped := escapeDoubleQuotes(idl)
	args := append(pp.includeArgs(), strings.Fields(pp.cfg.GetString("preprocessor_flags"))...)
	return pp.exec(args, strings.NewReader(escaped))
}

// preprocessTemporaryFile writes idl to a scratch file and delegates
// to PreprocessFile, mirroring get_temporary_file + preprocess_file.
func (pp *Preprocessor) preprocessTemporaryFile(idl string) (string, error) {
	tmp, err := os.CreateTemp("", "xtypes_*.idl")
	if err != nil {
		return "", &PreprocessorError{Command: pp.cfg.GetString("preprocessor_exec"), Cause: err}
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.WriteString(idl); err != nil {
		tmp.Close()
		return "", &PreprocessorError{Command: pp.cfg.GetString("preprocessor_exec"), Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &PreprocessorError{Command: pp.cfg.GetString("preprocessor_exec"), Cause: err}
	}

	return pp.PreprocessFile(name)
}

// escapeDoubleQuotes replicates replace_all_string(s, "\"", "\\\""):
// every `"` becomes `\"`, and if a `\"` produced that way is itself
// preceded by a backslash, the escape is doubled again.
func escapeDoubleQuotes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			if i > 0 && s[i-1] == '\\' {
				b.WriteString(`\\"`)
			} else {
				b.WriteString(`\"`)
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (pp *Preprocessor) exec(args []string, stdin *strings.Reader) (string, error) {
	name := pp.cfg.GetString("preprocessor_exec")
	cmd := exec.Command(name, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	filter, stderrBuf := stderrFilter()
	cmd.Stderr = filter

	log.Debugf("running preprocessor: %s %s", name, strings.Join(args, " "))

	out, err := cmd.Output()
	if err != nil {
		if stderrBuf.Len() > 0 {
			log.Warnf("preprocessor stderr: %s", stderrBuf.String())
		}
		return "", &PreprocessorError{Command: fmt.Sprintf("%s %s", name, strings.Join(args, " ")), Cause: err}
	}
	return string(out), nil
}
