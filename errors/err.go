package errors

import (
	"fmt"
)

type ErrCode int

type JailErr struct {
	Code ErrCode
	Msg  string
}

func (e *JailErr) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Msg)
}

func new(code ErrCode, msg string) *JailErr {
	return &JailErr{
		Code: code,
		Msg:  msg,
	}
}

const (
	notFound ErrCode = iota
	invalid
	storeMissing
	parseFailed
	notAllowed
)

// Pre-defined errors.
var (
	PropertyNotFound     = new(notFound, "property not found")
	InvalidPropertyValue = new(invalid, "invalid property value")
	InvalidResourceName  = new(invalid, "invalid resource name")
	StoreNotFound        = new(storeMissing, "no owning storage pool found")
	DatasetNotFound      = new(notFound, "dataset not found")
	PoolNotFound         = new(storeMissing, "pool not found")
	ParseFailed          = new(parseFailed, "failed to parse input")
	ZFSNotAllowed        = new(notAllowed, "jail_zfs_dataset is set but jail_zfs is disabled")
)
