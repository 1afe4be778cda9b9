package service

import "errors"

var (
	ErrMissingParams    = errors.New("缺少必要参数")
	ErrMissingUserID    = errors.New("缺少用户ID")
	ErrInvalidMessageID = errors.New("无效的留言ID")
	// ErrMessageNotFound covers both a missing message and one the caller did not write.
	ErrMessageNotFound = errors.New("留言不存在或无权删除")
)
