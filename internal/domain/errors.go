package domain

import "errors"

type ErrorKind int

const (
	KindInvalidInput ErrorKind = iota + 1
	KindInvalidDuration
	KindWeekPublished
	KindAlreadyPublished
	KindEmptyWeek
	KindShiftClash
	KindNotFound
	KindUnsupportedOperation
	KindInternal
)

// Error 是业务层错误，Kind 决定对外的状态码，Data 为附带的上下文
type Error struct {
	Kind    ErrorKind
	Message string
	Data    any
}

func (e *Error) Error() string {
	return e.Message
}

// Is 只比较 Kind，使得 errors.Is(err, ErrWeekPublished) 对任意提示信息都成立
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrInvalidInput         = NewError(KindInvalidInput, "invalid input")
	ErrInvalidDuration      = NewError(KindInvalidDuration, "invalid shift duration")
	ErrWeekPublished        = NewError(KindWeekPublished, "week is published")
	ErrAlreadyPublished     = NewError(KindAlreadyPublished, "week is already published")
	ErrEmptyWeek            = NewError(KindEmptyWeek, "cannot publish an empty week")
	ErrShiftClash           = NewError(KindShiftClash, "shift clash detected")
	ErrNotFound             = NewError(KindNotFound, "shift not found")
	ErrUnsupportedOperation = NewError(KindUnsupportedOperation, "bulk delete is not supported")
	ErrInternal             = NewError(KindInternal, "internal error")
)

// 存储层错误
var (
	ErrNoRecord   = errors.New("record not found")
	ErrWeekExists = errors.New("week with the same start date already exists")
)

// ClashData 是冲突错误附带的数据
type ClashData struct {
	ClashingShift ShiftView `json:"clashingShift"`
}
