package prompt

// System prompts for the recommender.
// Each takes the maximum number of books as its only %d argument.
// The example line pins the exact envelope the extractor expects.
const (
	SystemPromptEn = `You are a book reviewer. Recommend at most %d books.
Output pure JSON only. If you know fewer books, include as many as you have.
Example: {"books":[{"title":"…","author":"…","reason":"…"}]}`

	SystemPromptKo = `너는 서평가다. 최대 %d권까지 책을 추천한다.
순수 JSON만 출력, 부족하면 있는 만큼 넣어라.
예시: {"books":[{"title":"…","author":"…","reason":"…"}]}`
)
