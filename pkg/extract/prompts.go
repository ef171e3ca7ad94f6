package extract

const factExtractionPrompt = `You are a fact extractor for a personal companion. Return **only valid JSON**. No commentary.

Extract concrete facts about the user from their latest message. Each fact must be:
- Explicitly stated (no interpretation or psychoanalysis)
- Specific enough to be useful later
- About the user, the people in their life, or their plans

Allowed categories: personal, relationship, preferences, emotions, plans, interests, concerns.

Recent conversation topics for context:
{context}

Latest message:
{message}

## Output schema
` + "```json" + `
{
  "facts": [
    {
      "content": "descriptive phrase with context",
      "category": "one of the allowed categories",
      "confidence": 0.0,
      "needsVerification": false
    }
  ]
}
` + "```" + `
Confidence is your certainty the fact is true as stated, between 0 and 1.
Set needsVerification when the statement is indirect or could be a joke.`
