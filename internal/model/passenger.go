package model

import "strings"

// Gender 後端使用 L（男）/ P（女）
type Gender string

const (
	GenderMale   Gender = "L"
	GenderFemale Gender = "P"
)

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Label 顯示用名稱
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "Laki-laki"
	case GenderFemale:
		return "Perempuan"
	}
	return ""
}

// PassengerRecord 乘客資料，四個欄位都必填
type PassengerRecord struct {
	FullName    string `json:"nama"`
	NationalID  string `json:"nik"`
	Gender      Gender `json:"jenis_kelamin"`
	PhoneNumber string `json:"nomor_telepon"`
}

// Normalized 去除各欄位前後空白
func (p PassengerRecord) Normalized() PassengerRecord {
	return PassengerRecord{
		FullName:    strings.TrimSpace(p.FullName),
		NationalID:  strings.TrimSpace(p.NationalID),
		Gender:      Gender(strings.TrimSpace(string(p.Gender))),
		PhoneNumber: strings.TrimSpace(p.PhoneNumber),
	}
}

// Profile GET /api/user 回傳的使用者資料，欄位可能為 null
type Profile struct {
	ID          int     `json:"id"`
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	NationalID  *string `json:"nik"`
	Gender      *string `json:"jenis_kelamin"`
	PhoneNumber *string `json:"nomor_telepon"`
}
