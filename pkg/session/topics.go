package session

import "regexp"

// Fixed keyword-to-topic rules used to keep a coarse notion of what the
// conversation is about.
var topicPatterns = []struct {
	topic string
	re    *regexp.Regexp
}{
	{"work", regexp.MustCompile(`(?i)\b(work|job|office|boss|shift|deadline)\b`)},
	{"family", regexp.MustCompile(`(?i)\b(family|mom|dad|parents|brother|sister)\b`)},
	{"food", regexp.MustCompile(`(?i)\b(food|dinner|lunch|breakfast|restaurant|cooking|eat)\b`)},
	{"travel", regexp.MustCompile(`(?i)\b(travel|trip|vacation|flight|hotel)\b`)},
	{"music", regexp.MustCompile(`(?i)\b(music|song|concert|album|playlist)\b`)},
	{"movies", regexp.MustCompile(`(?i)\b(movie|film|show|series|cinema)\b`)},
	{"games", regexp.MustCompile(`(?i)\b(game|games|gaming|play|player)\b`)},
	{"health", regexp.MustCompile(`(?i)\b(gym|workout|doctor|sick|sleep|health)\b`)},
}

func topicsFor(text string) []string {
	var topics []string
	for _, pattern := range topicPatterns {
		if pattern.re.MatchString(text) {
			topics = append(topics, pattern.topic)
		}
	}
	return topics
}
