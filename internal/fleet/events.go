package fleet

// Event topics published by the fleet plugin.
const (
	// TopicDeviceRegistered is published when a device enrolls for the
	// first time. Payload: the models.Device.
	TopicDeviceRegistered = "fleet.device.registered"
)
