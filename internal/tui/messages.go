package tui

import "github.com/mmcdole/flatsync/internal/domain"

// StatusMsg carries one status published by the sync manager
type StatusMsg domain.SyncStatus

// StatusClosedMsg is sent when the status channel is closed
type StatusClosedMsg struct{}
