package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"LoneGuard/pkg/logger"
)

// AlertMessage 告警通知载荷
type AlertMessage struct {
	AlertID   uint
	SessionID uint
	Type      string
	Severity  string
	CreatedAt time.Time
}

// Notifier 告警下发接口，实现方自行决定渠道（邮件 / 推送 / 短信）
type Notifier interface {
	Notify(ctx context.Context, msg AlertMessage) error
}

// Dispatch 异步下发，失败只记录日志，绝不影响调用方
func Dispatch(n Notifier, msg AlertMessage) {
	if n == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("notifier panic", zap.Any("recover", r), zap.Uint("alert_id", msg.AlertID))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.Notify(ctx, msg); err != nil {
			logger.Warn("alert notification failed",
				zap.Uint("alert_id", msg.AlertID), zap.Error(err))
		}
	}()
}

// NopNotifier 空实现，未配置渠道时使用
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, msg AlertMessage) error { return nil }
