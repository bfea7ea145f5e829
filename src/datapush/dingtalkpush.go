// Package datapush 将统计摘要推送到钉钉群机器人
package datapush

import (
	"BikeRentalDashboard/src/charts"
	"BikeRentalDashboard/src/config"
	"BikeRentalDashboard/src/processor"
	"BikeRentalDashboard/src/utils"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrNoWebhook = errors.New("未配置 webhook")

// 钉钉 API 响应结构体
type DingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// MarkdownMessage 机器人 markdown 消息
type MarkdownMessage struct {
	MsgType  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
}

func NewMarkdownMessage(title, text string) MarkdownMessage {
	msg := MarkdownMessage{MsgType: "markdown"}
	msg.Markdown.Title = title
	msg.Markdown.Text = text
	return msg
}

// Pusher 向 webhook 发送消息，失败按配置重试
type Pusher struct {
	webhook       string
	retryTimes    int
	retryInterval time.Duration
	client        *http.Client
}

func NewPusher(cfg config.Push) *Pusher {
	times := cfg.RetryTimes
	if times <= 0 {
		times = 1
	}
	return &Pusher{
		webhook:       cfg.WebhookURL,
		retryTimes:    times,
		retryInterval: time.Duration(cfg.RetryInterval),
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

// Push 发送 rep 的摘要
func (p *Pusher) Push(ctx context.Context, title string, rep *processor.Report) error {
	if p.webhook == "" {
		return ErrNoWebhook
	}
	msg := NewMarkdownMessage(title, SummaryMarkdown(title, rep))

	return retry(ctx, func() error {
		return p.send(ctx, msg)
	}, p.retryTimes, p.retryInterval)
}

func (p *Pusher) send(ctx context.Context, msg MarkdownMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化请求体失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhook, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook 返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result DingTalkResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("发送消息失败: %s", result.ErrMsg)
	}
	return nil
}

// 重试函数，ctx 取消时立即返回
func retry(ctx context.Context, fn func() error, times int, interval time.Duration) error {
	var err error
	for i := 0; i < times; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == times-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("重试 %d 次后失败: %w", times, err)
}

// SummaryMarkdown 头部指标、工作日/周末合计、最高季节和相关系数
func SummaryMarkdown(title string, rep *processor.Report) string {
	h := rep.Headline
	var b strings.Builder

	fmt.Fprintf(&b, "### %s\n\n", title)
	fmt.Fprintf(&b, "- Days: %s\n", utils.FormatCount(h.Days))
	fmt.Fprintf(&b, "- Total Rentals: %s\n", utils.FormatCount(h.Total))
	fmt.Fprintf(&b, "- Average Daily Rentals: %s\n", utils.FormatMean(h.Mean))
	fmt.Fprintf(&b, "- Peak Daily Rentals: %s\n", utils.FormatCount(h.Peak))

	for _, d := range rep.DayType {
		fmt.Fprintf(&b, "- %s: %s\n", d.Label, utils.FormatCount(d.Count))
	}

	var top *processor.SeasonBucket
	for i := range rep.Season {
		if top == nil || rep.Season[i].Count > top.Count {
			top = &rep.Season[i]
		}
	}
	if top != nil && top.Count > 0 {
		fmt.Fprintf(&b, "- Busiest Season: %s (%s)\n", top.Label, utils.FormatCount(top.Count))
	}

	fmt.Fprintf(&b, "- Temperature %s\n", charts.CorrelationLabel(rep.Correlation))
	fmt.Fprintf(&b, "\n> %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}
