package repository

import "gorm.io/gorm"

// Repositories собирает все репозитории над одним подключением
type Repositories struct {
	Tx          TxManager
	Assignments AssignmentRepository
	Attendance  AttendanceRepository
	Backups     BackupRepository
	Histories   HistoryRepository
	Directory   DirectoryRepository
}

// New создаёт набор репозиториев
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Tx:          NewTxManager(db),
		Assignments: NewAssignmentRepository(db),
		Attendance:  NewAttendanceRepository(db),
		Backups:     NewBackupRepository(db),
		Histories:   NewHistoryRepository(db),
		Directory:   NewDirectoryRepository(db),
	}
}
