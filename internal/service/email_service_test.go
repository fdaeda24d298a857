package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/bnt-kitchen/internal/config"
	"github.com/bnt-kitchen/internal/i18n"
	"github.com/bnt-kitchen/internal/models"
)

func TestBuildOrderStatusContent(t *testing.T) {
	tests := []struct {
		name                string
		locale              string
		input               OrderStatusEmailInput
		wantSubjectContains []string
		wantBodyContains    []string
		wantBodyMissing     []string
	}{
		{
			name:   "member_vi",
			locale: i18n.LocaleVI,
			input: OrderStatusEmailInput{
				OrderCode: "BNT260105-7KQ2ZA",
				Message:   "Đơn BNT260105-7KQ2ZA: Đang giao.",
				Total:     models.NewMoney(125000),
			},
			wantSubjectContains: []string{"BNT260105-7KQ2ZA"},
			wantBodyContains:    []string{"Đang giao", "125000"},
			wantBodyMissing:     []string{"/orders/"},
		},
		{
			name:   "guest_en",
			locale: "en",
			input: OrderStatusEmailInput{
				OrderCode: "BNT260105-AB12CD",
				Message:   "Order BNT260105-AB12CD: Cancelled.",
				IsGuest:   true,
			},
			wantSubjectContains: []string{"BNT260105-AB12CD", "Order"},
			wantBodyContains:    []string{"Cancelled", "BNT260105-AB12CD"},
			wantBodyMissing:     []string{"Total"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := buildOrderStatusContent(tt.input, tt.locale)
			for _, expected := range tt.wantSubjectContains {
				if !strings.Contains(subject, expected) {
					t.Fatalf("subject missing %q: %s", expected, subject)
				}
			}
			for _, expected := range tt.wantBodyContains {
				if !strings.Contains(body, expected) {
					t.Fatalf("body missing %q: %s", expected, body)
				}
			}
			for _, unexpected := range tt.wantBodyMissing {
				if strings.Contains(body, unexpected) {
					t.Fatalf("body should not contain %q: %s", unexpected, body)
				}
			}
		})
	}
}

func TestEmailServiceDisabledOrIncomplete(t *testing.T) {
	var nilService *EmailService
	if nilService.Enabled() {
		t.Fatalf("nil service must be disabled")
	}
	if err := NewEmailService(&config.EmailConfig{}).SendOrderStatusEmail("lan@example.com", OrderStatusEmailInput{}, "vi"); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("want ErrEmailServiceDisabled, got %v", err)
	}
	incomplete := NewEmailService(&config.EmailConfig{Enabled: true, Host: "smtp.example.com"})
	if incomplete.Enabled() {
		t.Fatalf("service without port/from must not report enabled")
	}
	if err := incomplete.SendOrderStatusEmail("lan@example.com", OrderStatusEmailInput{}, "vi"); !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("want ErrEmailServiceNotConfigured, got %v", err)
	}
	configured := NewEmailService(&config.EmailConfig{Enabled: true, Host: "smtp.example.com", Port: 587, From: "bep@example.com"})
	if err := configured.SendOrderStatusEmail("not-an-email", OrderStatusEmailInput{}, "vi"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("want ErrInvalidEmail, got %v", err)
	}
}

func TestBuildEmailMessageEncodesHeaders(t *testing.T) {
	from := buildFromAddress("bep@example.com", "Bếp BNT")
	msg := buildEmailMessage(from, "lan@example.com", "Đơn hàng", "Xin chào")
	if !strings.Contains(msg, "=?UTF-8?q?") {
		t.Fatalf("non-ascii headers should be q-encoded: %s", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nXin chào") {
		t.Fatalf("body should follow a blank line: %q", msg)
	}
}

func TestIsEmailRecipientRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "smtp_550_no_such_recipient",
			err:  errors.New("550 No such recipient here"),
			want: true,
		},
		{
			name: "smtp_user_unknown",
			err:  errors.New("SMTP 5.1.1 user unknown"),
			want: true,
		},
		{
			name: "smtp_550_mailbox_unavailable",
			err:  errors.New("550 mailbox unavailable"),
			want: true,
		},
		{
			name: "network_timeout",
			err:  errors.New("dial tcp timeout"),
			want: false,
		},
		{
			name: "nil_error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmailRecipientRejected(tt.err); got != tt.want {
				t.Fatalf("isEmailRecipientRejected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	rejected := errors.New("550 No such recipient here")
	if got := normalizeEmailSendError(rejected); !errors.Is(got, ErrEmailRecipientRejected) {
		t.Fatalf("normalizeEmailSendError() expected ErrEmailRecipientRejected, got %v", got)
	}

	networkErr := errors.New("dial tcp timeout")
	if got := normalizeEmailSendError(networkErr); !errors.Is(got, networkErr) {
		t.Fatalf("normalizeEmailSendError() should keep original error, got %v", got)
	}

	if got := normalizeEmailSendError(nil); got != nil {
		t.Fatalf("normalizeEmailSendError(nil) should be nil, got %v", got)
	}
}
