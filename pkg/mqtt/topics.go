package mqtt

import "fmt"

// TopicLightingBase is the prefix for lighting state published by LED agents
const TopicLightingBase = "automation/context/lighting"

// LightingContextTopic constructs the state topic for an LED array location
// Pattern: automation/context/lighting/{location}
func LightingContextTopic(location string) string {
	return fmt.Sprintf("%s/%s", TopicLightingBase, location)
}
