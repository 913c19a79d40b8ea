package config

// FieldError 指向未通过校验的具体配置项。Error 输出 `字段: 原因`，
// -check-config 模式下直接展示给用户。
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

func newFieldError(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}
