package model

// ScheduleClassContext 一次訂票流程所針對的班次與艙等，由上游選擇艙等步驟提供
type ScheduleClassContext struct {
	ScheduleID      int     `json:"jadwal_id"`
	ClassOfferingID int     `json:"jadwal_kelas_bus_id"`
	UnitPrice       float64 `json:"harga"`
}

// IsValid 兩個 id 都必須為正數
func (c ScheduleClassContext) IsValid() bool {
	return c.ScheduleID > 0 && c.ClassOfferingID > 0
}

// ClassOffering 班次中的一個艙等（後端 jadwal_kelas_bus）
type ClassOffering struct {
	ID         int     `json:"id" db:"id"`
	ScheduleID int     `json:"jadwal_id" db:"schedule_id"`
	ClassName  string  `json:"kelas" db:"class_name"`
	Price      float64 `json:"harga" db:"price"`
}
