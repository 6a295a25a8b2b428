package passenger

import (
	"strings"
	"sync"

	"bus-ticket-booking/internal/model"
	"bus-ticket-booking/pkg/logger"

	"go.uber.org/zap"
)

// Form 乘客表單；重試訂位時保留使用者輸入
type Form struct {
	mu     sync.Mutex
	record model.PassengerRecord
}

func NewForm() *Form {
	return &Form{}
}

func (f *Form) SetFullName(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record.FullName = v
}

func (f *Form) SetNationalID(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record.NationalID = v
}

func (f *Form) SetGender(g model.Gender) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record.Gender = g
}

func (f *Form) SetPhoneNumber(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record.PhoneNumber = v
}

// Set 整筆覆寫
func (f *Form) Set(record model.PassengerRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record = record
}

func (f *Form) Record() model.PassengerRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record
}

// Prefill 用個人資料補上空白欄位。
// 只接受非空的值，已填寫的欄位不覆蓋，性別只接受 L / P。
// 回傳個人資料無法提供的欄位，畫面可提示使用者去更新個人資料。
func (f *Form) Prefill(profile *model.Profile) []Field {
	f.mu.Lock()
	defer f.mu.Unlock()

	if profile == nil {
		return append([]Field(nil), Fields...)
	}

	var lacking []Field

	if name := hint(profile.Name); name != "" {
		if strings.TrimSpace(f.record.FullName) == "" {
			f.record.FullName = name
		}
	} else {
		lacking = append(lacking, FieldFullName)
	}

	if nik := hint(profile.NationalID); nik != "" {
		if strings.TrimSpace(f.record.NationalID) == "" {
			f.record.NationalID = nik
		}
	} else {
		lacking = append(lacking, FieldNationalID)
	}

	if g := model.Gender(hint(profile.Gender)); g.IsValid() {
		if strings.TrimSpace(string(f.record.Gender)) == "" {
			f.record.Gender = g
		}
	} else {
		lacking = append(lacking, FieldGender)
	}

	if phone := hint(profile.PhoneNumber); phone != "" {
		if strings.TrimSpace(f.record.PhoneNumber) == "" {
			f.record.PhoneNumber = phone
		}
	} else {
		lacking = append(lacking, FieldPhoneNumber)
	}

	if len(lacking) > 0 {
		fields := make([]string, len(lacking))
		for i, l := range lacking {
			fields[i] = string(l)
		}
		logger.WithComponent("passenger").Debug("profile lacks fields", zap.Int("user_id", profile.ID), zap.Strings("fields", fields))
	}
	return lacking
}

func hint(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
