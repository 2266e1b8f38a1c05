package health

import "testing"

func TestChangeDetector(t *testing.T) {
	d := newChangeDetector()

	// First sighting below the threshold is a transition.
	if topic := d.observe("dev-1", 45); topic != TopicDeviceCritical {
		t.Errorf("first critical observation = %q, want %q", topic, TopicDeviceCritical)
	}
	// Staying critical is not.
	if topic := d.observe("dev-1", 30); topic != "" {
		t.Errorf("repeated critical observation = %q, want no topic", topic)
	}
	// Crossing back up is a recovery.
	if topic := d.observe("dev-1", 85); topic != TopicDeviceRecovered {
		t.Errorf("recovery observation = %q, want %q", topic, TopicDeviceRecovered)
	}
	// Staying healthy is not.
	if topic := d.observe("dev-1", 90); topic != "" {
		t.Errorf("repeated healthy observation = %q, want no topic", topic)
	}
}

func TestChangeDetector_FirstHealthySightingIsSilent(t *testing.T) {
	d := newChangeDetector()
	if topic := d.observe("dev-1", 95); topic != "" {
		t.Errorf("first healthy observation = %q, want no topic", topic)
	}
}

func TestChangeDetector_BoundaryIsNotCritical(t *testing.T) {
	d := newChangeDetector()
	if topic := d.observe("dev-1", criticalThreshold); topic != "" {
		t.Errorf("observation at threshold = %q, want no topic", topic)
	}
	if topic := d.observe("dev-1", criticalThreshold-1); topic != TopicDeviceCritical {
		t.Errorf("observation below threshold = %q, want %q", topic, TopicDeviceCritical)
	}
}

func TestChangeDetector_TracksDevicesIndependently(t *testing.T) {
	d := newChangeDetector()
	d.observe("dev-1", 40)
	if topic := d.observe("dev-2", 40); topic != TopicDeviceCritical {
		t.Errorf("dev-2 first critical = %q, want %q", topic, TopicDeviceCritical)
	}
	if topic := d.observe("dev-1", 40); topic != "" {
		t.Errorf("dev-1 repeat = %q, want no topic", topic)
	}
}
