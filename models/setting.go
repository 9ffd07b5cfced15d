package models

// SiteSetting - произвольная пара ключ-значение (флаги вроде registration_open).
type SiteSetting struct {
	ID    int    `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SettingRegistrationOpen управляет доступностью регистрации.
const SettingRegistrationOpen = "registration_open"
