package errcode

// 异步导出通知中携带的错误码：
// - 0：无错误
// - 4xxx：输入有问题但流程已降级继续（例如未知模板回退为默认模板）
// - 5xxx：系统错误，导出中断
const (
	OK              = 0
	UnknownTemplate = 4004
	SystemError     = 5000
)
