package app

var motivationalQuotes = []string{
	"Every deep breath is a step toward calm. Relax, you are stronger than you think!",
	"Mindfulness is the key to inner peace. Take a moment for yourself.",
	"With each breath, you grow stronger and more resilient.",
}

// QuoteService hands out motivational quotes.
type QuoteService struct {
	opts options
}

// NewQuoteService creates a QuoteService.
func NewQuoteService(opts ...Option) *QuoteService {
	return &QuoteService{opts: newOptions(opts)}
}

// Random returns one quote.
func (s *QuoteService) Random() string {
	return motivationalQuotes[s.opts.intn(len(motivationalQuotes))]
}
