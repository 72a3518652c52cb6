package domain

import "time"

// ServerInfo はデータベースサーバーのバージョン情報を表す。
type ServerInfo struct {
	Version    string `json:"version"`
	GitVersion string `json:"gitVersion,omitempty"`
}

// DatabaseInfo は接続先データベースの基本情報を表す。
type DatabaseInfo struct {
	Name        string
	Collections []string
	// 権限不足などで取得できない場合はnil
	Server *ServerInfo
}

// DatabaseStatus は共有接続の状態を表す。
type DatabaseStatus struct {
	Connected bool
	Latency   time.Duration
	Info      *DatabaseInfo
	MaskedURI string
	Error     string
	CheckedAt time.Time
}

// ConnectionTestResult は新規接続によるテストの結果を表す。
type ConnectionTestResult struct {
	Success  bool
	Latency  time.Duration
	Error    string
	TestedAt time.Time
}
