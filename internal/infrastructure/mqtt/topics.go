package mqtt

import "fmt"

// TopicPrefix is the root of every itemstore topic.
const TopicPrefix = "itemstore"

// Topics provides builders for itemstore MQTT topics.
//
//	topic := mqtt.Topics{}.ItemEvent("created")
//	// Returns: "itemstore/item/created"
type Topics struct{}

// SystemStatus returns the retained online/offline status topic.
//
// Example: itemstore/system/status
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// ItemEvent returns the topic for one kind of item change.
//
// Example: itemstore/item/deleted
func (Topics) ItemEvent(action string) string {
	return fmt.Sprintf("%s/item/%s", TopicPrefix, action)
}

