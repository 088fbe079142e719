package detection

// WildlifeCondition is the prompt sent with every wildlife scan.
const WildlifeCondition = "Analyze this image for wildlife. \n" +
	"    1. Are there any animals visible? If yes, list each species you can identify.\n" +
	"    2. For each animal, estimate the count if there are multiple.\n" +
	"    3. Rate your confidence for each identification as 'high', 'medium', or 'low'.\n" +
	"    4. Describe the animals' behavior briefly.\n" +
	"    \n" +
	"    If no animals are visible, say \"No wildlife detected\" and describe what you see instead."
