// internal/services/clock.go
package services

import "time"

// Clock 抽象时间源，测试中注入虚拟时钟来驱动防抖定时器
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer 可取消的单次定时器
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock 返回基于真实时间的时钟
func SystemClock() Clock {
	return systemClock{}
}
