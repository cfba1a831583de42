package storage

import "errors"

// ErrLinkNotFound возвращается, когда код не найден в хранилище
var ErrLinkNotFound = errors.New("link not found")

// ErrCodeConflict возвращается, когда код уже занят
var ErrCodeConflict = errors.New("code already taken")
