package passenger

import (
	"fmt"
	"regexp"
	"strings"

	"bus-ticket-booking/internal/model"
	apperrors "bus-ticket-booking/pkg/app_errors"
)

// Field 乘客表單欄位，值與後端欄位名稱一致
type Field string

const (
	FieldFullName    Field = "nama"
	FieldNationalID  Field = "nik"
	FieldGender      Field = "jenis_kelamin"
	FieldPhoneNumber Field = "nomor_telepon"
)

// Fields 表單欄位顯示順序
var Fields = []Field{FieldFullName, FieldNationalID, FieldGender, FieldPhoneNumber}

var (
	nationalIDPattern = regexp.MustCompile(`^[0-9]{16}$`)
	phonePattern      = regexp.MustCompile(`^(\+62|62|0)8[0-9]{7,12}$`)
)

// ValidationError 缺少或格式錯誤的欄位
type ValidationError struct {
	Missing []Field
	Invalid []Field
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+joinFields(e.Missing))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+joinFields(e.Invalid))
	}
	return fmt.Sprintf("%s: %s", apperrors.ErrInvalidPassenger, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidPassenger
}

func joinFields(fields []Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

type Validator interface {
	// nil 代表可以進入確認步驟，否則回傳 *ValidationError
	Validate(record model.PassengerRecord) error
}

// ValidatorOptions StrictFormat 開啟 NIK 16 碼與手機號碼格式檢查，預設關閉
type ValidatorOptions struct {
	StrictFormat bool
}

type ValidatorImpl struct {
	strict bool
}

func NewValidator(opts *ValidatorOptions) Validator {
	v := &ValidatorImpl{}
	if opts != nil {
		v.strict = opts.StrictFormat
	}
	return v
}

func (v *ValidatorImpl) Validate(record model.PassengerRecord) error {
	r := record.Normalized()
	verr := &ValidationError{}

	if r.FullName == "" {
		verr.Missing = append(verr.Missing, FieldFullName)
	}
	if r.NationalID == "" {
		verr.Missing = append(verr.Missing, FieldNationalID)
	} else if v.strict && !nationalIDPattern.MatchString(r.NationalID) {
		verr.Invalid = append(verr.Invalid, FieldNationalID)
	}
	if r.Gender == "" {
		verr.Missing = append(verr.Missing, FieldGender)
	} else if !r.Gender.IsValid() {
		verr.Invalid = append(verr.Invalid, FieldGender)
	}
	if r.PhoneNumber == "" {
		verr.Missing = append(verr.Missing, FieldPhoneNumber)
	} else if v.strict && !phonePattern.MatchString(compactPhone(r.PhoneNumber)) {
		verr.Invalid = append(verr.Invalid, FieldPhoneNumber)
	}

	if len(verr.Missing) == 0 && len(verr.Invalid) == 0 {
		return nil
	}
	return verr
}

// compactPhone 移除常見分隔符號
func compactPhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
}
