package app

import (
	"context"
	"fmt"
	"math/rand"
)

var (
	nameAdjectives = []string{
		"Brave", "Curious", "Sneaky", "Swift", "Mighty", "Lucky", "Cheerful", "Witty",
		"Clever", "Bold", "Zany", "Quirky", "Daring", "Crafty", "Plucky", "Spunky",
		"Speedy", "Nimble", "Stealthy", "Agile", "Turbo", "Zippy", "Blazing", "Flying",
		"Grumpy", "Sleepy", "Hungry", "Fancy", "Fuzzy", "Cosmic", "Epic", "Radical",
		"Frozen", "Fiery", "Shadow", "Thunder", "Crystal", "Mystic", "Arcane", "Ancient",
		"Golden", "Silver", "Crimson", "Azure", "Emerald", "Violet", "Amber", "Onyx",
	}
	nameNouns = []string{
		"Panda", "Fox", "Eagle", "Otter", "Falcon", "Wolf", "Bear", "Tiger",
		"Dolphin", "Penguin", "Koala", "Badger", "Raccoon", "Hamster", "Llama", "Sloth",
		"Owl", "Raven", "Dragon", "Phoenix", "Shark", "Panther", "Moose", "Squirrel",
		"Ninja", "Wizard", "Pirate", "Knight", "Viking", "Samurai", "Ranger", "Mage",
		"Rocket", "Comet", "Pickle", "Waffle", "Taco", "Potato", "Noodle", "Muffin",
	}
)

const nameAttempts = 5

// suggestUserName proposes a playful name that is not on the leaderboard yet.
// Lookup failures count as taken; after nameAttempts it falls back to Player####.
func suggestUserName(ctx context.Context, rnd *rand.Rand, taken func(context.Context, string) (bool, error)) string {
	for i := 0; i < nameAttempts; i++ {
		candidate := fmt.Sprintf("%s%s%d",
			nameAdjectives[rnd.Intn(len(nameAdjectives))],
			nameNouns[rnd.Intn(len(nameNouns))],
			100+rnd.Intn(899),
		)
		if exists, err := taken(ctx, candidate); err == nil && !exists {
			return candidate
		}
	}
	return fmt.Sprintf("Player%d", 1000+rnd.Intn(8999))
}
