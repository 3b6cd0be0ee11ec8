package service

import "errors"

// 服务层错误类型，Handler 负责映射到 HTTP 状态码
var (
	// ErrInvalidCommand 命令不在受支持的三种之内（400）
	ErrInvalidCommand = errors.New("invalid command: must be one of dispense_food, dispense_water, calibrate")

	// ErrInvalidAlertType 报警类型不合法（400）
	ErrInvalidAlertType = errors.New("invalid alert type")

	// ErrInvalidEmail 邮箱格式不合法（400）
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrNoRecipients 用户未配置任何收件人（手动测试报警前置检查，400）
	ErrNoRecipients = errors.New("no notification recipients configured")
)
