package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"teambingo/internal/model"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "teambingo"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(dbName)
	packColl := db.Collection("cardpacks")

	pack := model.CardPack{
		ID:    primitive.NewObjectID().Hex(),
		Title: "Workplace Scenarios (Starter)",
		Cards: model.NormalizeCards(starterCards()),
	}

	result, err := packColl.InsertOne(ctx, pack)
	if err != nil {
		log.Fatalf("Failed to insert card pack: %v", err)
	}

	fmt.Printf("Seeded card pack %q with %d cards (insertedId=%v)\n", pack.Title, len(pack.Cards), result.InsertedID)
	fmt.Println("Import it into a session with POST /v1/sessions/{sessionId}/cards/pack")
}

// starterCards returns 28 scenario cards: 25 for the board plus 3 spares
// for mid-game replacement.
func starterCards() []model.GameCard {
	type scenario struct {
		title     string
		situation string
		choices   [4]string
		scores    [4]int // 0 falls back to the default base score
		note      string
	}

	scenarios := []scenario{
		{
			title:     "Missed Deadline",
			situation: "A teammate tells you one day before the deadline that their part will not be done in time.",
			choices:   [4]string{"Reassign their work among the team tonight", "Ask them what is blocking them and help remove it", "Report the slip to the manager immediately", "Extend the deadline quietly and hope nobody notices"},
			scores:    [4]int{70, 90, 75, 60},
			note:      "Understanding the blocker before reacting keeps trust intact.",
		},
		{
			title:     "Credit Taken",
			situation: "In a review meeting a colleague presents your analysis as their own work.",
			choices:   [4]string{"Correct them in front of everyone", "Raise it with them privately after the meeting", "Let it go this once", "Email the manager with timestamps as proof"},
			scores:    [4]int{65, 90, 60, 70},
		},
		{
			title:     "Conflicting Priorities",
			situation: "Two project leads each insist their task is your top priority this week.",
			choices:   [4]string{"Work overtime to satisfy both", "Get the two leads in one conversation to rank the work", "Pick the louder lead's task first", "Ask your manager to decide for you"},
			scores:    [4]int{65, 90, 60, 80},
		},
		{
			title:     "New Joiner Struggling",
			situation: "A new team member has been silent in meetings for three weeks and their output is slipping.",
			choices:   [4]string{"Pair with them on their next task", "Wait, everyone ramps at their own pace", "Mention it to their manager", "Send them documentation links to self-study"},
			scores:    [4]int{90, 60, 75, 70},
		},
		{
			title:     "Scope Creep",
			situation: "A stakeholder keeps adding small requests that together have doubled the project scope.",
			choices:   [4]string{"Absorb the requests to keep them happy", "List the additions and renegotiate the timeline", "Refuse all new requests until release", "Deliver the original scope and ignore the rest"},
			scores:    [4]int{60, 90, 70, 65},
		},
		{
			title:     "Production Incident",
			situation: "Your change broke production on a Friday evening. Rollback is possible but loses a day of data.",
			choices:   [4]string{"Roll back now and accept the data loss", "Attempt a forward fix under time pressure", "Page the team for a joint decision", "Wait until Monday when everyone is fresh"},
			scores:    [4]int{80, 70, 90, 60},
			note:      "Severity decisions with irreversible cost deserve a second pair of eyes.",
		},
		{
			title:     "Quiet Disagreement",
			situation: "The team agreed on a design you believe will not scale, and the decision meeting is over.",
			choices:   [4]string{"Build it as decided, it is not your call", "Write up your concern with data and share it", "Build your alternative in parallel secretly", "Relitigate it at every standup"},
			scores:    [4]int{70, 90, 60, 65},
		},
		{
			title:     "Burnout Signs",
			situation: "Your most reliable teammate has started missing standups and snapping at small questions.",
			choices:   [4]string{"Give them space and cover their work", "Check in with them privately about how they are doing", "Tell HR you are concerned", "Call it out at the retro"},
			scores:    [4]int{75, 90, 70, 60},
		},
		{
			title:     "Unequal Workload",
			situation: "Sprint after sprint the same two people take the hardest tickets while others coast.",
			choices:   [4]string{"Rotate ticket assignment explicitly", "Praise the two so others feel pressure", "Let it be, output is fine", "Raise workload balance at the retro"},
			scores:    [4]int{85, 65, 60, 90},
		},
		{
			title:     "Vague Requirements",
			situation: "A ticket says 'make onboarding better' with no acceptance criteria and the author is on leave.",
			choices:   [4]string{"Build your best interpretation", "Draft criteria yourself and confirm asynchronously", "Park the ticket until the author returns", "Ask the whole channel what it means"},
			scores:    [4]int{70, 90, 65, 75},
		},
		{
			title:     "Meeting Overload",
			situation: "Your team spends half of every day in meetings and delivery is slowing.",
			choices:   [4]string{"Decline everything without an agenda", "Audit the recurring meetings with the team and cut", "Accept it as the cost of alignment", "Skip silently and read notes later"},
			scores:    [4]int{75, 90, 60, 65},
		},
		{
			title:     "Mistake Found Late",
			situation: "You discover a calculation error in a report the client received last month.",
			choices:   [4]string{"Correct it in the next report without comment", "Tell the client now with the corrected numbers", "Check whether anyone acted on the wrong number first", "Stay quiet, the delta is small"},
			scores:    [4]int{65, 90, 85, 60},
			note:      "Owning an error early is cheaper than having it discovered.",
		},
		{
			title:     "Knowledge Silo",
			situation: "Only one engineer understands the billing system and they just gave notice.",
			choices:   [4]string{"Schedule handover sessions and record them", "Offer them a retention bonus", "Have them write docs in their last week", "Plan to reverse engineer it later"},
			scores:    [4]int{90, 70, 80, 60},
		},
		{
			title:     "Public Criticism",
			situation: "A senior colleague harshly criticizes your proposal in a channel with 200 people.",
			choices:   [4]string{"Respond point by point in the channel", "Reply briefly, then move the detail to a direct conversation", "Delete your proposal", "Escalate their tone to their manager"},
			scores:    [4]int{75, 90, 60, 65},
		},
		{
			title:     "Half-Finished Handoff",
			situation: "You inherit a half-finished feature with no tests and no documentation from a departed teammate.",
			choices:   [4]string{"Rewrite it from scratch", "Map what exists, add tests around it, then continue", "Ship it as-is, it seems to work", "Ask for the feature to be descoped"},
			scores:    [4]int{70, 90, 60, 75},
		},
		{
			title:     "Favoritism",
			situation: "The interesting projects keep going to the same person while you get maintenance work.",
			choices:   [4]string{"Ask your manager directly for a growth project", "Do the maintenance work badly so it stops coming", "Wait to be noticed", "Compare assignments publicly at the retro"},
			scores:    [4]int{90, 60, 65, 70},
		},
		{
			title:     "Customer Escalation",
			situation: "An angry customer demands a feature today that realistically takes two weeks.",
			choices:   [4]string{"Promise it today to calm them down", "Offer a workaround now and a dated plan for the feature", "Hand them to support", "Explain why two weeks is already fast"},
			scores:    [4]int{60, 90, 65, 75},
		},
		{
			title:     "Standup Theater",
			situation: "Standup has become status reporting to the lead while the team stares at their laptops.",
			choices:   [4]string{"Suggest walking the board instead of the room", "Cancel standup entirely", "Keep it, rituals need consistency", "Make updates async in the channel"},
			scores:    [4]int{90, 65, 60, 80},
		},
		{
			title:     "Risky Shortcut",
			situation: "A teammate wants to skip code review to hit the demo date for a flagship client.",
			choices:   [4]string{"Allow it for this one demo branch", "Review it together in the next hour instead of skipping", "Refuse, the process exists for a reason", "Let them ship and review afterwards"},
			scores:    [4]int{70, 90, 75, 65},
		},
		{
			title:     "Remote Exclusion",
			situation: "Decisions keep being made at the office coffee machine, and your two remote colleagues find out days later.",
			choices:   [4]string{"Require decisions to land in a written channel", "Tell the remote colleagues to visit more often", "Summarize the hallway talk for them when you remember", "Accept it, co-location wins"},
			scores:    [4]int{90, 60, 70, 65},
		},
		{
			title:     "Estimate Pressure",
			situation: "Leadership wants a committed date today for a project the team has not yet scoped.",
			choices:   [4]string{"Give a range with the assumptions written down", "Refuse to estimate until scoping is done", "Give the optimistic number they want to hear", "Pad a guess by three times"},
			scores:    [4]int{90, 70, 60, 65},
		},
		{
			title:     "Duplicate Effort",
			situation: "You discover another team has been building the same internal tool for two months.",
			choices:   [4]string{"Ship first so your version wins", "Meet them, compare, and converge on one tool", "Stop your work and adopt theirs", "Let both continue and see which is better"},
			scores:    [4]int{60, 90, 75, 65},
		},
		{
			title:     "Interview Doubt",
			situation: "After interviews, the hiring panel is split on a candidate you think is a bad fit.",
			choices:   [4]string{"Defer to the majority", "State your specific concern and propose a focused follow-up", "Veto the hire", "Approve, the team needs hands"},
			scores:    [4]int{65, 90, 70, 60},
		},
		{
			title:     "Tooling Debate",
			situation: "The team has argued for two sprints about which framework to adopt, and no work has started.",
			choices:   [4]string{"Timebox a spike for each and decide on results", "Let the most senior person decide", "Pick the one with more stars", "Postpone the decision another sprint"},
			scores:    [4]int{90, 80, 60, 65},
		},
		{
			title:     "Silent Stakeholder",
			situation: "The product owner has not replied to questions in two weeks, and assumptions are piling up.",
			choices:   [4]string{"Proceed on your assumptions and log them visibly", "Block all work until they respond", "Escalate their silence to their manager", "Find the next-best decision maker and confirm there"},
			scores:    [4]int{85, 60, 70, 90},
		},
		{
			title:     "Praise Imbalance",
			situation: "Your manager publicly praises the launch but names only half the people who built it.",
			choices:   [4]string{"Reply adding the missing names and their contributions", "Tell the missing teammates you noticed", "Say nothing, praise is not a ledger", "Complain to the manager about your omission"},
			scores:    [4]int{90, 75, 60, 65},
		},
		{
			title:     "Flaky Tests",
			situation: "The build fails randomly, and the team has started merging with tests red.",
			choices:   [4]string{"Quarantine the flaky tests and fix them on a schedule", "Delete the flaky tests", "Keep retrying builds until green", "Freeze merges until all flakes are fixed"},
			scores:    [4]int{90, 65, 60, 75},
		},
		{
			title:     "Weekend Request",
			situation: "A manager asks the team to work the weekend for a date that was moved up for marketing reasons.",
			choices:   [4]string{"Agree and quietly burn the team", "Lay out what the original date costs versus what weekend work costs", "Refuse on principle", "Volunteer alone to cover it"},
			scores:    [4]int{60, 90, 70, 65},
		},
	}

	cards := make([]model.GameCard, 0, len(scenarios))
	for _, sc := range scenarios {
		card := model.GameCard{
			Title:        sc.title,
			Situation:    sc.situation,
			LearningNote: sc.note,
		}
		for i, text := range sc.choices {
			card.Choices = append(card.Choices, model.Choice{
				Text:  text,
				Score: sc.scores[i],
			})
		}
		cards = append(cards, card)
	}
	return cards
}
