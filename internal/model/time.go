package model

import "time"

// displayTimeFormat 对应浏览器 toLocaleTimeString 的常见输出，例如 "14:05:09"。
const displayTimeFormat = "15:04:05"

// DisplayTime 生成对话消息上展示用的时间戳。
func DisplayTime(t time.Time) string {
	return t.Format(displayTimeFormat)
}
