// Package xserial 将一条日志记录序列化为写入文件的字节。
//
// 记录是一个封闭的和类型 [Record]：
//   - [Text]: 调用方已格式化好的文本，任何策略下都原样输出，不补换行
//   - [Fields]: 结构化字段，按 [Policy] 选定的格式输出
//
// 格式策略在构造时通过 [NewPolicy] 一次性确定，不按记录动态判断：
//   - [FormatJSON]: 默认。循环引用替换为 "[Circular]"，字段顺序不约束
//   - [FormatOrderedJSON]: 先按 FieldOrder 输出列出的字段，其余字段按字典序
//   - [FormatUnsafeJSON]: 跳过循环检测，循环记录返回错误，只影响这一条
//   - [FormatText]: 人类可读的单行文本
//   - [FormatRaw]: 原样透传；结构化记录回退为 FormatJSON
//
// 所有 JSON 格式以 "\n" 结尾。[Serialize] 不做 I/O，不会 panic。
//
// # 文本格式
//
//	[time] name.SEVERITY L=level E="msg" pid=pid key="value" ...
//
// 内部字段（name、hostname、pid、level、msg、time、v、version）之外的字段按字典序追加，
// 值用 [strconv.QuoteToASCII] 转义，非字符串值先序列化为 JSON。单个字段格式化失败时省略该字段。
//
// # 级别
//
// 10 TRACE、20 DEBUG、40 WARN、50 ERROR、60 FATAL，其余（包括 30）均为 INFO。
package xserial
