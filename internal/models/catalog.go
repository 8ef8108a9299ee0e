// internal/models/catalog.go
package models

// Course 课程目录条目，对应 data/courses.json
type Course struct {
	ID       string    `json:"id"`
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	Chapters []Chapter `json:"chapters"`
}

// Chapter 课程下的章节
type Chapter struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Name   string `json:"name"`
}
