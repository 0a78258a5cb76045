package errors

import (
	"errors"

	"gorm.io/gorm"
)

// ErrForbidden 非资源所有者且非管理员（上报与评论共用）
var ErrForbidden = errors.New("无权操作该资源")

// IsNotFound 是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate 是否为唯一约束冲突（需开启 gorm TranslateError）
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
