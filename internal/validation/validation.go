package validation

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"

	"resumeStudio/internal/resume"
)

// 面向用户的提示文案。
const (
	EmailMessage = "Please enter a valid email address"
	PhoneMessage = "Please enter a valid 10 digits phone number"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)

	validate = newValidator()
)

// Errors 以字段名为键保存校验提示；缺失的键表示该字段合法或为空。
type Errors map[string]string

// contactForm 只包含需要格式校验的联系方式字段，omitempty 保证空值不会报错。
type contactForm struct {
	Email string `json:"email" validate:"omitempty,resume_email"`
	Phone string `json:"phone" validate:"omitempty,resume_phone"`
}

var messages = map[string]struct {
	key string
	msg string
}{
	"Email": {key: "email", msg: EmailMessage},
	"Phone": {key: "phone", msg: PhoneMessage},
}

func newValidator() *validator.Validate {
	v := validator.New()
	mustRegister(v, "resume_email", func(fl validator.FieldLevel) bool {
		return ValidateEmail(fl.Field().String())
	})
	mustRegister(v, "resume_phone", func(fl validator.FieldLevel) bool {
		return ValidatePhone(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// ValidateEmail 判断邮箱格式：local@domain.tld，各部分不含空白与 @。
func ValidateEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidatePhone 判断电话格式：可选的前导 +，随后至少 10 个数字、空格或连字符。
func ValidatePhone(s string) bool {
	return phonePattern.MatchString(s)
}

// ValidateForm 校验联系方式字段，只对非空字段生效，永远不会返回硬性错误。
func ValidateForm(d resume.ResumeData) Errors {
	out := Errors{}

	err := validate.Struct(contactForm{Email: d.Email, Phone: d.Phone})
	if err == nil {
		return out
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return out
	}
	for _, fe := range fieldErrs {
		if m, ok := messages[fe.StructField()]; ok {
			out[m.key] = m.msg
		}
	}
	return out
}
