package models

type Employee struct {
	Name   string `json:"name"`
	Points int64  `json:"points"`
}

// LeaderboardRow is one ranked entry of the public leaderboard.
type LeaderboardRow = Employee

// LogEntry is an immutable audit record of one ledger transaction.
type LogEntry struct {
	ID           int64  `json:"id"`
	EmployeeName string `json:"employee_name"`
	Timestamp    string `json:"timestamp"`
	Manager      string `json:"manager"`
	Action       string `json:"action"`
	Reason       string `json:"reason"`
}

type EmployeeDetail struct {
	Points int64      `json:"points"`
	Logs   []LogEntry `json:"logs"`
}
