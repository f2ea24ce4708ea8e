package i18n

var messagesZH = map[string]string{
	// ========== 词法 ==========
	ErrUnexpectedChar:      "意外字符 '%c'",
	ErrUnterminatedComment: "未闭合的块注释",
	ErrUnterminatedString:  "未闭合的字符串",
	ErrInvalidNumber:       "无效数字: %s",

	// ========== 语法 ==========
	ErrExpectedToken:       "期望 %s",
	ErrExpectedExpression:  "期望表达式",
	ErrInvalidAssignTarget: "无效的赋值目标",
	ErrTooManyErrors:       "错误过多，停止解析",

	// ========== 前端 ==========
	ErrFrontendUnsupported: "lye 前端不支持 %s",

	// ========== 编译 ==========
	ErrUndefinedVariable:  "未定义的变量 '%s'",
	ErrVariableRedeclared: "变量 '%s' 已在当前作用域中声明",
	ErrUnsupportedOp:      "不支持的操作: %s",
	ErrUnsupportedOpKind:  "不支持的操作: %s 作用于 %s",
	ErrTooManyLocals:      "局部变量槽过多 (%d，上限 %d)",
	ErrStackTooDeep:       "操作数栈过深 (%d，上限 %d)",

	// ========== 提示 ==========
	HintDeclareFirst:    "请先使用 'var %s = ...' 声明",
	HintRenameOrReuse:   "重命名第二个声明，或直接给已有变量赋值",
	HintSupportedKinds:  "支持的操作数类型: %s",
	HintPreviousDeclare: "之前的声明位于同一个块中",
	HintDidYouMean:      "是否想使用 '%s'？",

	// ========== 命令行 ==========
	CLIUsage: `lye - 将 Lox 脚本编译为栈式字节码

用法:
  lye <命令> [选项] <file.lox>

命令:
  run       编译并使用参考虚拟机执行
  build     编译为 .class 文件和单元产物
  check     仅编译并报告诊断
  disasm    打印编译后的指令
  ast       打印规范语法树
  inspect   描述已注册的宿主类型
  init      创建 lye.toml 和 src/main.lox
  lsp       通过标准输入输出提供诊断
  repl      交互式会话
  cache     查看或清空单元缓存 (stats|clear)
  version   打印版本
  help      显示本帮助

全局选项:
  --lang en|zh   消息语言
  --no-color     关闭彩色输出`,
	CLIUnknownCommand: "未知命令: %s",
	CLIMissingFile:    "缺少输入文件",
	CLIReadFailed:     "无法读取 %s: %v",
	CLIWroteFile:      "已写入 %s",
	CLICheckOK:        "%s: 通过 (最大栈深 %d，槽位 %d)",
	CLIResult:         "结果: %s",
	CLICacheHit:       "%s 命中缓存",
	CLIUnknownType:    "未知的宿主类型: %s",
	CLIErrorCount:     "发现 %d 个错误，已中止",
}
