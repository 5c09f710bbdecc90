package rabbitmq

// Ключи маршрутизации уведомлений о лицензиях.
const (
	RoutingKeyLicenseExpiring = "license.expiring"
	RoutingKeyLicenseExpired  = "license.expired"
)

// QueueConfig описывает очередь и ключ маршрутизации для привязки к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди воркера уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.license_expiring", RoutingKey: RoutingKeyLicenseExpiring},
		{QueueName: "notifications.license_expired", RoutingKey: RoutingKeyLicenseExpired},
	}
}
