package emotion

const emotionPrompt = `You are an emotion classifier for a personal companion. Return **only valid JSON**. No commentary.

Classify the emotional state of the user from their latest message, using the
recent conversation for context.

Recent conversation:
{history}

Latest message:
{message}

## Output schema
` + "```json" + `
{
  "primaryEmotion": "happy|sad|angry|frustrated|excited|anxious|loving|confused|neutral",
  "intensity": "low|medium|high",
  "emotionScores": {
    "happy": 0.0, "sad": 0.0, "angry": 0.0, "frustrated": 0.0, "excited": 0.0,
    "anxious": 0.0, "loving": 0.0, "confused": 0.0, "neutral": 0.0
  },
  "isAngryWithSpecificPerson": false,
  "emotionalTriggers": ["word or phrase that carries the emotion"],
  "confidence": 0.0
}
` + "```" + `
Set isAngryWithSpecificPerson only when the user is angry or frustrated at a
named or clearly identified third party (a boss, a friend, a family member),
not at the situation or at you. All scores are between 0 and 1.`
