// Package domain defines the core domain models for the analyzer.
package domain

// CycleStatus represents the outcome of an analysis cycle.
type CycleStatus string

const (
	CycleStatusSuccess CycleStatus = "success"
	CycleStatusPartial CycleStatus = "partial"
	CycleStatusFailed  CycleStatus = "failed"
)

// ActionType represents the kind of a proposed UI action.
type ActionType string

const (
	ActionTypeClick    ActionType = "click"
	ActionTypeTypeText ActionType = "type_text"
	ActionTypeKeyPress ActionType = "key_press"
	ActionTypeWait     ActionType = "wait"
	ActionTypeNone     ActionType = "none"
)

// ActionStatus represents the outcome of executing one action.
type ActionStatus string

const (
	ActionStatusExecuted           ActionStatus = "executed"
	ActionStatusSkippedUnconfirmed ActionStatus = "skipped_unconfirmed"
	ActionStatusFailed             ActionStatus = "failed"
)

// UIElementKind represents the kind of a detected UI element.
type UIElementKind string

const (
	UIElementKindButton    UIElementKind = "button"
	UIElementKindWindow    UIElementKind = "window"
	UIElementKindTextBlock UIElementKind = "text_block"
)
