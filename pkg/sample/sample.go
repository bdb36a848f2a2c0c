// Package sample generates plausible content for the add_random_*
// directives: conversations, calendar events, recipes, tasks, expenses,
// notes, activities, and files. All randomness flows through one seeded
// source so a run can be reproduced.
package sample

import (
	"fmt"
	"math/rand"
	"time"
)

// Provider draws sample content from a single seeded random source.
type Provider struct {
	rng *rand.Rand
}

// New creates a provider seeded with the given value.
func New(seed int64) *Provider {
	return &Provider{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeSeeded creates a provider seeded from the wall clock.
func NewTimeSeeded() *Provider {
	return New(time.Now().UnixNano())
}

// Intn returns a uniform value in [0, n).
func (p *Provider) Intn(n int) int {
	return p.rng.Intn(n)
}

// IntBetween returns a uniform value in [lo, hi].
func (p *Provider) IntBetween(lo, hi int) int {
	return lo + p.rng.Intn(hi-lo+1)
}

// Float64Between returns a uniform value in [lo, hi).
func (p *Provider) Float64Between(lo, hi float64) float64 {
	return lo + p.rng.Float64()*(hi-lo)
}

// Chance reports true with probability pct/100.
func (p *Provider) Chance(pct int) bool {
	return p.rng.Intn(100) < pct
}

// Int63 returns a non-negative random 63-bit integer.
func (p *Provider) Int63() int64 {
	return p.rng.Int63()
}

// Contact is a sample person with a phone number.
type Contact struct {
	Name   string
	Number string
}

var contacts = []Contact{
	{"Alice Johnson", "+1234567890"},
	{"Bob Smith", "+1234567891"},
	{"Carol White", "+1234567892"},
	{"David Brown", "+1234567893"},
	{"Emma Davis", "+1234567894"},
	{"Frank Miller", "+1234567895"},
	{"Grace Wilson", "+1234567896"},
	{"Henry Taylor", "+1234567897"},
}

// Contact picks a sample contact.
func (p *Provider) Contact() Contact {
	return contacts[p.rng.Intn(len(contacts))]
}

var messageTemplates = []string{
	"Hey, are you free this weekend?",
	"Did you see the game last night?",
	"Can you send me the address again?",
	"Running about 10 minutes late, sorry!",
	"Happy birthday! Hope you have a great day",
	"Don't forget the meeting tomorrow at 9",
	"Lunch at the usual place?",
	"Just landed, call you when I get home",
	"Thanks for the ride yesterday",
	"Have you finished the report yet?",
	"The package arrived this morning",
	"Want to grab coffee later?",
	"I left my charger at your place",
	"Movie starts at 8, see you there",
	"Let me know when you are on your way",
}

var messageResponses = []string{
	"Yes, sounds good!",
	"Sorry, I can't make it",
	"Sure, give me a minute",
	"No worries, see you soon",
	"Thank you so much!",
	"I'll be there",
	"Absolutely, what time?",
	"Got it, thanks",
	"On my way now",
	"Almost done, sending it tonight",
	"Great, talk later",
	"Perfect, see you then",
	"I'll bring it tomorrow",
	"Can we do next week instead?",
	"Sounds like a plan",
}

// MessageText picks a sample conversation opener.
func (p *Provider) MessageText() string {
	return messageTemplates[p.rng.Intn(len(messageTemplates))]
}

// ResponseText picks a sample conversation reply.
func (p *Provider) ResponseText() string {
	return messageResponses[p.rng.Intn(len(messageResponses))]
}

// EventTitle is a sample calendar event.
type EventTitle struct {
	Title       string
	Description string
}

var eventTitles = []EventTitle{
	{"Team Standup", "Daily sync with the team"},
	{"Dentist Appointment", "Routine checkup"},
	{"Gym Session", "Leg day"},
	{"Project Review", "Quarterly review with stakeholders"},
	{"Dinner with Sam", "Table booked at the Italian place"},
	{"Car Service", "Oil change and tire rotation"},
	{"Book Club", "Discussing chapters 5 through 9"},
	{"Flight to Denver", "Remember to check in online"},
	{"Parent Teacher Meeting", "School progress discussion"},
	{"Yoga Class", "Beginner vinyasa"},
}

// Event picks a sample calendar event.
func (p *Provider) Event() EventTitle {
	return eventTitles[p.rng.Intn(len(eventTitles))]
}

// Task is a sample task with a description.
type Task struct {
	Title string
	Notes string
}

var tasks = []Task{
	{"Buy groceries", "Milk, eggs, bread, and vegetables"},
	{"Call the bank", "Ask about the pending transfer"},
	{"Finish expense report", "Submit before Friday"},
	{"Water the plants", "The ferns need extra water"},
	{"Schedule dentist visit", "Six month cleaning is due"},
	{"Renew car insurance", "Policy expires end of month"},
	{"Clean the garage", "Sort boxes and donate old tools"},
	{"Prepare presentation", "Slides for the product demo"},
	{"Return library books", "Three books due this week"},
	{"Fix leaking faucet", "Kitchen sink, needs a new washer"},
	{"Back up laptop", "Full backup to the external drive"},
	{"Plan weekend trip", "Check cabin availability"},
	{"Update resume", "Add the latest project"},
	{"Pick up dry cleaning", "Ready after 3pm"},
	{"Pay electricity bill", "Due on the 15th"},
	{"Organize photo album", "Sort last summer's photos"},
	{"Replace air filter", "Buy the 16x25 size"},
	{"Email the landlord", "About the heating issue"},
	{"Study for certification", "Two practice exams left"},
	{"Bake cookies", "Double batch for the bake sale"},
}

// Task picks a sample task.
func (p *Provider) Task() Task {
	return tasks[p.rng.Intn(len(tasks))]
}

// Recipe is a sample recipe row.
type Recipe struct {
	Title       string
	Description string
	Servings    string
	PrepTime    string
	Ingredients string
	Directions  string
}

var recipeTitles = []struct {
	title      string
	directions string
}{
	{"Spicy Tuna Wraps", "Mix tuna with sriracha mayo, load into tortillas with cucumber and roll tightly."},
	{"Creamy Mushroom Risotto", "Toast the rice, add stock one ladle at a time, finish with mushrooms and parmesan."},
	{"Honey Glazed Chicken Thighs", "Sear the thighs skin side down, brush with honey glaze and roast until sticky."},
	{"Roasted Vegetable Quinoa Bowl", "Roast the vegetables at high heat, fold through cooked quinoa and dress with tahini."},
	{"Classic Beef Chili", "Brown the beef with onions, add beans and tomatoes, simmer low for an hour."},
	{"Garlic Butter Shrimp Pasta", "Cook shrimp in garlic butter, toss with linguine and a squeeze of lemon."},
	{"Thai Green Curry", "Fry the curry paste, add coconut milk and vegetables, simmer until tender."},
	{"Lemon Garlic Tilapia", "Pan fry the fillets, deglaze with lemon juice and spoon the garlic butter over."},
}

var recipeDescriptions = []string{
	"A quick weeknight favorite.",
	"Comfort food with minimal cleanup.",
	"Fresh, bright, and ready in under an hour.",
}

var recipeServings = []string{"1 serving", "2 servings", "3-4 servings", "6 servings", "8 servings"}

var recipePrepTimes = []string{"10 mins", "20 mins", "30 mins", "45 mins", "1 hrs", "2 hrs"}

// Recipe picks a sample recipe.
func (p *Provider) Recipe() Recipe {
	r := recipeTitles[p.rng.Intn(len(recipeTitles))]
	return Recipe{
		Title:       r.title,
		Description: recipeDescriptions[p.rng.Intn(len(recipeDescriptions))],
		Servings:    recipeServings[p.rng.Intn(len(recipeServings))],
		PrepTime:    recipePrepTimes[p.rng.Intn(len(recipePrepTimes))],
		Ingredients: "varies",
		Directions:  r.directions,
	}
}

var expenseNames = []string{"Groceries", "Dinner", "Coffee", "Movie Tickets", "Gas", "Parking"}

// ExpenseName picks a sample expense label.
func (p *Provider) ExpenseName() string {
	return expenseNames[p.rng.Intn(len(expenseNames))]
}

// ExpenseAmountCents returns a sample amount in cents.
func (p *Provider) ExpenseAmountCents() int {
	return p.IntBetween(100, 10000)
}

var noteTitles = []string{
	"Meeting Notes",
	"Project Ideas",
	"Shopping List",
	"Travel Plans",
	"Books to Read",
	"Recipes",
	"Daily Journal",
}

// NoteTitle picks a sample note title.
func (p *Provider) NoteTitle() string {
	return noteTitles[p.rng.Intn(len(noteTitles))]
}

var loremSentences = []string{
	"Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
	"Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
	"Ut enim ad minim veniam, quis nostrud exercitation ullamco.",
	"Duis aute irure dolor in reprehenderit in voluptate velit.",
	"Excepteur sint occaecat cupidatat non proident.",
}

// NoteBody builds a short paragraph of filler text.
func (p *Provider) NoteBody() string {
	n := p.IntBetween(2, 4)
	body := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			body += " "
		}
		body += loremSentences[p.rng.Intn(len(loremSentences))]
	}
	return body
}

// JoplinNote is a sample note for a notebook category.
type JoplinNote struct {
	Title  string
	Body   string
	IsTodo bool
}

var joplinCategories = map[string][]JoplinNote{
	"Recipes": {
		{Title: "Chicken Tikka Masala", Body: "Marinated chicken cooked in a creamy tomato sauce with aromatic spices."},
		{Title: "Chocolate Chip Cookies", Body: "Classic recipe for chewy cookies with chocolate chips and a hint of vanilla."},
		{Title: "Beef Stir-Fry", Body: "Quick and easy stir-fry with tender beef, colorful vegetables, and a savory sauce."},
	},
	"Tasks": {
		{Title: "Grocery Shopping", Body: "- Milk, eggs, bread \n- Fruits and vegetables \n- Chicken breast", IsTodo: true},
		{Title: "Pay Bills", Body: "- Electricity bill due May 15th \n- Internet bill due May 20th", IsTodo: true},
	},
	"Personal": {
		{Title: "Dream Journal Entry", Body: "Had a vivid dream about flying over a vast ocean."},
		{Title: "Bucket List", Body: "1. Learn to surf. 2. Visit Machu Picchu. 3. Write a novel."},
	},
}

// JoplinCategories lists the built-in notebook categories.
func JoplinCategories() []string {
	return []string{"Recipes", "Tasks", "Personal"}
}

// JoplinNote picks a sample note from the named category. Unknown categories
// fall back to filler text.
func (p *Provider) JoplinNote(category string) JoplinNote {
	notes, ok := joplinCategories[category]
	if !ok {
		return JoplinNote{Title: p.NoteTitle(), Body: p.NoteBody()}
	}
	return notes[p.rng.Intn(len(notes))]
}

// Activity is a sample tracked activity.
type Activity struct {
	Name     string
	Category string
}

var activityNames = map[string][]string{
	"Running":     {"Morning Run", "Night Run", "Marathon Training", "Interval Run", "Long-distance Run"},
	"Cycling":     {"Bike Commute", "Mountain Biking", "Road Cycling", "Leisure Cycling"},
	"Walking":     {"Stroll", "Brisk Walking", "Hiking", "City Walk"},
	"Swimming":    {"Freestyle", "Breaststroke", "Backstroke", "Butterfly", "Medley"},
	"Skiing":      {"Alpine Skiing", "Cross-country Skiing", "Freestyle Skiing"},
	"Fitness":     {"Strength Training", "HIIT Workout", "Cardio", "Yoga"},
	"Ball Sports": {"Basketball", "Soccer", "Tennis", "Volleyball"},
}

var activityCategories = []string{
	"Running", "Cycling", "Walking", "Swimming", "Skiing", "Fitness", "Ball Sports",
}

// Activity picks a sample activity name and category.
func (p *Provider) Activity() Activity {
	cat := activityCategories[p.rng.Intn(len(activityCategories))]
	names := activityNames[cat]
	return Activity{Name: names[p.rng.Intn(len(names))], Category: cat}
}

// ActivityDistance returns a plausible distance in meters for the category.
func (p *Provider) ActivityDistance(category string) float64 {
	switch category {
	case "Running":
		return p.Float64Between(1000, 15000)
	case "Cycling":
		return p.Float64Between(5000, 50000)
	case "Walking":
		return p.Float64Between(500, 8000)
	case "Swimming":
		return p.Float64Between(100, 3000)
	default:
		return p.Float64Between(1000, 10000)
	}
}

var fileExtensions = []string{".txt", ".md", ".log", ".csv", ".json"}

// FileName builds a sample file name with a random extension.
func (p *Provider) FileName(index int) string {
	return fmt.Sprintf("random_file_%d%s", index, fileExtensions[p.rng.Intn(len(fileExtensions))])
}

const alnum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// FileContent builds n characters of random alphanumeric content.
func (p *Provider) FileContent(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alnum[p.rng.Intn(len(alnum))]
	}
	return string(b)
}

// HexID returns a 32-character lowercase hex identifier.
func (p *Provider) HexID() string {
	const hexdigits = "0123456789abcdef"
	b := make([]byte, 32)
	for i := range b {
		b[i] = hexdigits[p.rng.Intn(len(hexdigits))]
	}
	return string(b)
}
