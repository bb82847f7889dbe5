// Package script picks the dispatcher's next spoken line from the call state.
// Wording is fixed so replays are reproducible.
package script

import (
	"fmt"

	"dispatch-voice-go/internal/conversation"
	"dispatch-voice-go/internal/retry"
	"dispatch-voice-go/internal/rules"
	"dispatch-voice-go/internal/scenario"
	"dispatch-voice-go/internal/types"
)

type Line struct {
	Text    string      `json:"text"`
	Topic   types.Topic `json:"topic,omitempty"`
	EndCall bool        `json:"end_call"`
}

const (
	noisyLine     = "Sorry, the line is breaking up on my end. Could you say that again?"
	clarifyPrefix = "I want to make sure I have all the details. "
	probePrefix   = "I just need a quick update so we can keep your load on track. "
	terminated    = "I'll make a note about your status. Please contact dispatch if you need assistance. Drive safely!"
)

var questions = map[types.Topic]string{
	types.TopicStatus:            "Could you give me a bit more detail about your current situation? Are you driving, at your destination, or experiencing any delays?",
	types.TopicLocation:          "What's your current location?",
	types.TopicETA:               "And when do you expect to arrive?",
	types.TopicDelayReason:       "I understand there's a delay. What's causing the delay?",
	types.TopicUnloading:         "Are you already unloading or still waiting to get into a dock? What door are you in?",
	types.TopicPOD:               "Please remember to submit your proof of delivery when you complete the load. Can you confirm you'll send the POD?",
	types.TopicSafety:            "I understand there may be an emergency situation. First and most importantly, is everyone safe? Are there any injuries that need immediate medical attention?",
	types.TopicEmergencyLocation: "Thank you. Now I need your exact location. Please give me the highway, mile marker, or nearest exit where you are.",
	types.TopicIncident:          "Got your location. What exactly happened? Was it an accident, breakdown, or medical emergency?",
	types.TopicLoadSecurity:      "Understood. Is your load secure?",
}

// Opening is the dispatcher's first line.
func Opening(def scenario.Definition, meta types.CallMeta) Line {
	name, load := meta.DriverName, meta.LoadNumber
	if name == "" {
		name = "there"
	}
	if load == "" {
		load = "your current load"
	}
	if def.ID == scenario.IDEmergencyProtocol {
		return Line{
			Text:  fmt.Sprintf("Hi %s, this is Emergency Dispatch calling about load %s. I need to check on your status immediately. Are you safe and do you need any emergency assistance?", name, load),
			Topic: types.TopicStatus,
		}
	}
	return Line{
		Text:  fmt.Sprintf("Hi %s! This is Dispatch with a check call on load %s. Can you give me an update on your status?", name, load),
		Topic: types.TopicStatus,
	}
}

// NextLine answers turn. state is the tracker state after the turn.
func NextLine(def scenario.Definition, state conversation.State, turn conversation.Turn) Line {
	switch state.Phase.Kind {
	case conversation.WrapUp:
		return Line{Text: wrapUp(def.ID), EndCall: true}
	case conversation.Escalated:
		return Line{Text: "I have all the emergency details. I'm connecting you to a human dispatcher right now. Stay on the line and they'll be with you immediately.", EndCall: true}
	case conversation.Terminated:
		return Line{Text: terminated, EndCall: true}
	}

	next := state.Pending
	q := question(def, next, turn)
	switch {
	case turn.Action == retry.RePrompt && turn.Classification.Kind == retry.Uncooperative:
		return Line{Text: probePrefix + q, Topic: next}
	case turn.Action == retry.RePrompt && isNoise(turn.Utterance.Text):
		return Line{Text: noisyLine, Topic: next}
	case turn.Action == retry.RePrompt:
		return Line{Text: clarifyPrefix + q, Topic: next}
	}
	return Line{Text: q, Topic: next}
}

func question(def scenario.Definition, tp types.Topic, turn conversation.Turn) string {
	if tp == types.TopicSafety && turn.Preempted && def.ID == scenario.IDEmergencyProtocol {
		return "Emergency detected. Is everyone safe? Any injuries that need immediate medical attention?"
	}
	// Entering the Driving branch asks for both items at once.
	if tp == types.TopicLocation && turn.Phase.Kind == conversation.InBranch && turn.Phase.Branch == conversation.BranchDriving && len(turn.Resolved) > 0 && turn.Resolved[0] == types.TopicStatus {
		return "Great, thanks for the update. What's your current location and estimated arrival time?"
	}
	if q, ok := questions[tp]; ok {
		return q
	}
	return "Is there anything else I should know about your load?"
}

func isNoise(text string) bool {
	_, ok := rules.Noise.First(text, true)
	return ok
}

func wrapUp(id string) string {
	switch id {
	case scenario.IDEmergencyProtocol:
		return "Emergency protocol complete, no immediate concerns. Drive safely and contact emergency dispatch immediately if anything changes."
	case scenario.IDDriverCheckin:
		return "Thank you for the detailed update. Drive safely and remember to submit your POD when you complete the load. Contact us if anything changes!"
	default:
		return "Thank you for the comprehensive update. Drive safely and remember to submit your proof of delivery when you complete the load. Contact us if anything changes!"
	}
}
