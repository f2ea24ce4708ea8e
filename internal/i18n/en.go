package i18n

var messagesEN = map[string]string{
	// ========== Lexer ==========
	ErrUnexpectedChar:      "unexpected character '%c'",
	ErrUnterminatedComment: "unterminated block comment",
	ErrUnterminatedString:  "unterminated string",
	ErrInvalidNumber:       "invalid number: %s",

	// ========== Parser ==========
	ErrExpectedToken:       "expected %s",
	ErrExpectedExpression:  "expected expression",
	ErrInvalidAssignTarget: "invalid assignment target",
	ErrTooManyErrors:       "too many errors, giving up",

	// ========== Frontend ==========
	ErrFrontendUnsupported: "%s is not supported by the lye front end",

	// ========== Compiler ==========
	ErrUndefinedVariable:  "undefined variable '%s'",
	ErrVariableRedeclared: "variable '%s' already declared in this scope",
	ErrUnsupportedOp:      "unsupported operation: %s",
	ErrUnsupportedOpKind:  "unsupported operation: %s on %s",
	ErrTooManyLocals:      "too many local slots (%d, limit %d)",
	ErrStackTooDeep:       "operand stack too deep (%d, limit %d)",

	// ========== Hints ==========
	HintDeclareFirst:    "declare it with 'var %s = ...' before use",
	HintRenameOrReuse:   "rename the second declaration or assign to the existing variable",
	HintSupportedKinds:  "supported operand kinds: %s",
	HintPreviousDeclare: "previous declaration is in the same block",
	HintDidYouMean:      "did you mean '%s'?",

	// ========== CLI ==========
	CLIUsage: `lye - compile Lox scripts to stack bytecode

Usage:
  lye <command> [flags] <file.lox>

Commands:
  run       compile and execute with the reference VM
  build     compile to a .class file and a unit artifact
  check     compile only and report diagnostics
  disasm    print the compiled instructions
  ast       print the canonical syntax tree
  inspect   describe a registered host type
  init      create lye.toml and src/main.lox
  lsp       serve diagnostics over stdio
  repl      interactive session
  cache     show or clear the unit cache (stats|clear)
  version   print version
  help      show this message

Global flags:
  --lang en|zh   message language
  --no-color     disable colored output`,
	CLIUnknownCommand: "unknown command: %s",
	CLIMissingFile:    "missing input file",
	CLIReadFailed:     "cannot read %s: %v",
	CLIWroteFile:      "wrote %s",
	CLICheckOK:        "%s: ok (max stack %d, slots %d)",
	CLIResult:         "result: %s",
	CLICacheHit:       "cache hit for %s",
	CLIUnknownType:    "unknown host type: %s",
	CLIErrorCount:     "aborting due to %d error(s)",
}
