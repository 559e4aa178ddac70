package idlc

import "fmt"

// PreprocessStrategy selects how the external preprocessor is invoked.
type PreprocessStrategy int

const (
	StrategyPipeStdin PreprocessStrategy = iota
	StrategyTemporaryFile
)

func (s PreprocessStrategy) String() string {
	switch s {
	case StrategyPipeStdin:
		return "pipe_stdin"
	case StrategyTemporaryFile:
		return "temporary_file"
	default:
		return "unknown"
	}
}

// CharTranslation selects what Go DynKind the `char` IDL keyword maps
// to (`octet` is always DynKindByte).
type CharTranslation int

const (
	CharTranslationChar CharTranslation = iota
	CharTranslationUint8
	CharTranslationInt8
)

// WideCharType selects what Go DynKind the `wchar` IDL keyword maps to.
type WideCharType int

const (
	WideCharTypeWcharT WideCharType = iota
	WideCharTypeChar16T
)

// Config is a typed key-value settings bag, in the same tagged-union
// style the teacher's config.go uses, generalized with a string-slice
// kind for include_paths.
type Config map[string]*cfgVal

type cfgValType int

const (
	cfgValUndefined cfgValType = iota
	cfgValBool
	cfgValInt
	cfgValString
	cfgValStringSlice
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValUndefined:   "undefined",
		cfgValBool:        "bool",
		cfgValInt:         "int",
		cfgValString:      "string",
		cfgValStringSlice: "[]string",
	}[vt]
}

type cfgVal struct {
	typ           cfgValType
	asBool        bool
	asInt         int
	asString      string
	asStringSlice []string
}

func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValUndefined {
		panic(fmt.Sprintf("can't assign %s to type %s", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("can't retrieve %s from %s variable", vt, v.typ))
	}
}

// NewConfig creates a configuration object primed with every option
// from spec §6.4, matching the original source's PreprocessorContext
// and Context field defaults.
func NewConfig() *Config {
	c := make(Config)
	c.SetBool("preprocess", false)
	c.SetString("preprocessor_exec", "cpp")
	c.SetString("preprocessor_flags", "-H")
	c.SetString("include_flag", "-I")
	c.SetStringSlice("include_paths", nil)
	c.SetString("error_redir", "")
	c.SetInt("strategy", int(StrategyPipeStdin))
	c.SetBool("ignore_case", false)
	c.SetBool("clear", true)
	c.SetBool("allow_keyword_identifiers", false)
	c.SetBool("ignore_redefinition", false)
	c.SetInt("char_translation", int(CharTranslationChar))
	c.SetInt("wchar_type", int(WideCharTypeWcharT))
	return &c
}

func (c *Config) SetBool(path string, v bool) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValBool)
	(*c)[path].asBool = v
}

func (c *Config) SetInt(path string, v int) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValInt)
	(*c)[path].asInt = v
}

func (c *Config) SetString(path string, v string) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValString)
	(*c)[path].asString = v
}

func (c *Config) SetStringSlice(path string, v []string) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValStringSlice)
	(*c)[path].asStringSlice = v
}

func (c *Config) GetBool(path string) bool {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValBool)
		return val.asBool
	}
	panic(fmt.Sprintf("bool setting %q does not exist", path))
}

func (c *Config) GetInt(path string) int {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValInt)
		return val.asInt
	}
	panic(fmt.Sprintf("int setting %q does not exist", path))
}

func (c *Config) GetString(path string) string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValString)
		return val.asString
	}
	panic(fmt.Sprintf("string setting %q does not exist", path))
}

func (c *Config) GetStringSlice(path string) []string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValStringSlice)
		return val.asStringSlice
	}
	panic(fmt.Sprintf("[]string setting %q does not exist", path))
}

func (c *Config) Strategy() PreprocessStrategy {
	return PreprocessStrategy(c.GetInt("strategy"))
}

func (c *Config) CharTranslation() CharTranslation {
	return CharTranslation(c.GetInt("char_translation"))
}

func (c *Config) WideCharType() WideCharType {
	return WideCharType(c.GetInt("wchar_type"))
}
