package i18n

// ============================================================================
// 消息 ID
// ============================================================================

// 词法分析
const (
	ErrUnexpectedChar      = "lexer.unexpected_char"
	ErrUnterminatedComment = "lexer.unterminated_comment"
	ErrUnterminatedString  = "lexer.unterminated_string"
	ErrInvalidNumber       = "lexer.invalid_number"
)

// 语法分析
const (
	ErrExpectedToken       = "parser.expected_token"
	ErrExpectedExpression  = "parser.expected_expression"
	ErrInvalidAssignTarget = "parser.invalid_assign_target"
	ErrTooManyErrors       = "parser.too_many_errors"
)

// 前端转换
const (
	ErrFrontendUnsupported = "frontend.unsupported"
)

// 编译
const (
	ErrUndefinedVariable  = "compiler.undefined_variable"
	ErrVariableRedeclared = "compiler.variable_redeclared"
	ErrUnsupportedOp      = "compiler.unsupported_op"
	ErrUnsupportedOpKind  = "compiler.unsupported_op_kind"
	ErrTooManyLocals      = "compiler.too_many_locals"
	ErrStackTooDeep       = "compiler.stack_too_deep"
)

// 提示
const (
	HintDeclareFirst    = "hint.declare_first"
	HintRenameOrReuse   = "hint.rename_or_reuse"
	HintSupportedKinds  = "hint.supported_kinds"
	HintPreviousDeclare = "hint.previous_declare"
	HintDidYouMean      = "hint.did_you_mean"
)

// 命令行
const (
	CLIUsage          = "cli.usage"
	CLIUnknownCommand = "cli.unknown_command"
	CLIMissingFile    = "cli.missing_file"
	CLIReadFailed     = "cli.read_failed"
	CLIWroteFile      = "cli.wrote_file"
	CLICheckOK        = "cli.check_ok"
	CLIResult         = "cli.result"
	CLICacheHit       = "cli.cache_hit"
	CLIUnknownType    = "cli.unknown_type"
	CLIErrorCount     = "cli.error_count"
)
