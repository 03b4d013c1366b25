package service

import "errors"

var (
	// ErrNotFound 短码没有对应的有效链接
	ErrNotFound = errors.New("service: link not found")
	// ErrExpired 链接存在但已过期，与不存在是两种状态
	ErrExpired = errors.New("service: link expired")
	// ErrDuplicateCode 插入时撞上唯一索引，调用方应重新生成短码
	ErrDuplicateCode = errors.New("service: short code already exists")
	// ErrAliasTaken 自定义别名已被占用，属于调用方错误
	ErrAliasTaken = errors.New("service: custom alias already taken")
	// ErrInvalidURL 目标地址校验失败
	ErrInvalidURL = errors.New("service: invalid destination url")
	// ErrReconcileInFlight 上一轮回写尚未结束，本轮跳过
	ErrReconcileInFlight = errors.New("service: reconciliation already in flight")
)
