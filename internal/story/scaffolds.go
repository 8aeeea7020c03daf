package story

import "github.com/LAMpbrien/adventures-of/internal/models"

// scaffold is the fixed plot for a theme. Beats and tone are templates
// rendered against the child profile.
type scaffold struct {
	kind    string
	beats   [models.StoryLength]string
	setting []string
	tone    string
}

var scaffolds = map[models.Theme]scaffold{
	models.ThemeSpaceAdventure: {
		kind: "space adventure",
		beats: [models.StoryLength]string{
			"{{.Name}} discovers something magical that transports them to space (a glowing star map, a friendly robot messenger, etc.)",
			"{{.Name}} arrives at their spaceship and meets a friendly alien co-pilot",
			"They blast off and fly through a beautiful nebula or asteroid field",
			"They arrive at a mysterious planet that needs help (the planet reflects {{.Name}}'s interests)",
			"{{.Name}} discovers the problem the planet faces",
			"{{.Name}} comes up with a clever solution using their unique skills and interests",
			"{{.Name}} saves the day! The planet celebrates",
			"{{.Name}} returns home as a hero, knowing they can always go back to the stars",
		},
		tone: "Wonder, bravery, discovery. Make {{.Name}} feel like the most important person in the galaxy.",
	},
	models.ThemeDinosaurRescue: {
		kind: "dinosaur rescue adventure",
		beats: [models.StoryLength]string{
			"{{.Name}} finds a mysterious fossil or portal in an unexpected place (their backyard, a park, etc.)",
			"{{.Name}} is transported back to the age of dinosaurs! They meet a friendly baby dinosaur",
			"The baby dinosaur leads {{.Name}} through a lush prehistoric jungle",
			"They discover that the baby dinosaur is lost and can't find its family",
			"{{.Name}} and the baby dinosaur encounter a challenge on their journey (crossing a river, navigating through tall ferns, etc.)",
			"{{.Name}} uses their cleverness and interests to help overcome the challenge",
			"They find the dinosaur's family! A heartwarming reunion. The dinosaurs show their gratitude",
			"{{.Name}} returns home with a special gift from their dinosaur friend, knowing they made a real difference",
		},
		tone: "Adventurous, warm, brave. The dinosaurs are friendly and awe-inspiring, never scary. Make {{.Name}} feel courageous and kind.",
	},
	models.ThemeOceanExplorer: {
		kind: "ocean exploration adventure",
		beats: [models.StoryLength]string{
			"{{.Name}} discovers a magical seashell or meets a friendly sea creature at the beach",
			"{{.Name}} can suddenly breathe underwater! They dive beneath the waves into a colorful coral kingdom",
			"They swim through an incredible coral reef full of amazing sea life",
			"{{.Name}} meets the ruler of the ocean kingdom who asks for help with a problem",
			"Something is threatening the ocean (tangled kelp blocking light, a missing pearl that keeps the waters warm, etc.)",
			"{{.Name}} uses their unique interests and skills to come up with a creative solution",
			"The ocean is saved! All the sea creatures celebrate with {{.Name}}",
			"{{.Name}} returns to the beach with a special treasure, knowing the ocean will always welcome them back",
		},
		tone: "Magical, colorful, joyful. The ocean is beautiful and welcoming, never threatening. Make {{.Name}} feel like a guardian of the sea.",
	},
	models.ThemeBushAdventure: {
		kind: "Australian bush adventure",
		beats: [models.StoryLength]string{
			"{{.Name}} discovers a golden gum leaf glowing at the base of a tall eucalyptus tree in an Australian bush setting",
			"A friendly joey hops out of the scrub and beckons {{.Name}} to follow deeper into the bush. The sounds of kookaburras and bellbirds fill the air",
			"They reach a magical billabong surrounded by tree ferns, where a wise old platypus surfaces and tells them the bush needs help",
			"The bush animals gather (wombats, echidnas, cockatoos, and a shy koala) and explain that the ancient waterhole that feeds the bush is fading",
			"{{.Name}} and the joey journey through towering gum trees, past banksia flowers and grasstrees, following a trail of glowing golden leaves",
			"{{.Name}} uses their unique interests and cleverness to restore the waterhole and bring water flowing back through the bush",
			"The bush bursts back to life! Kookaburras laugh from the treetops, kangaroos bound through the grass, and the koala finally comes down to celebrate with {{.Name}}",
			"{{.Name}} returns home carrying the golden gum leaf, which will always smell like eucalyptus and remind them of their friends in the Australian bush",
		},
		setting: []string{
			"Australian bush landscape: eucalyptus forests, red earth, billabongs, sandstone rocks",
			"Native flora: gum trees, banksia, bottlebrush, grasstrees (Xanthorrhoea), tree ferns, wattle",
			"Native fauna: kangaroos, joeys, koalas, wombats, platypus, echidnas, kookaburras, cockatoos, goannas, possums",
			"Use Australian English spelling throughout (colour, favourite, mum, etc.)",
		},
		tone: "Warm, adventurous, distinctly Australian. The bush is beautiful and welcoming. Make {{.Name}} feel like a true friend of the Australian bush and its creatures.",
	},
	models.ThemeReefExplorer: {
		kind: "Great Barrier Reef adventure",
		beats: [models.StoryLength]string{
			"{{.Name}} is on a beach in tropical Queensland when they find a shimmering shell that lets them breathe underwater",
			"{{.Name}} dives beneath the turquoise waves and enters the Great Barrier Reef, an explosion of colour with coral towers, sea fans, and swaying anemones",
			"A friendly green sea turtle glides up and invites {{.Name}} to explore. They swim past giant clams, schools of clownfish, and graceful manta rays",
			"The turtle brings {{.Name}} to meet a wise old dugong, the gentle guardian of the reef, who explains that a section of coral is losing its colour and needs help",
			"{{.Name}} and the turtle travel through underwater canyons and coral gardens to find the fading reef. They pass parrotfish, sea stars, and curious octopuses along the way",
			"{{.Name}} uses their unique interests and creativity to help restore the coral and bring the brilliant colours back to the reef",
			"The reef glows with life again! Dolphins leap, turtles dance, and all the reef creatures gather to celebrate with {{.Name}}",
			"{{.Name}} surfaces back on the beach at sunset, keeping the shell as a reminder that the Great Barrier Reef will always welcome them back",
		},
		setting: []string{
			"Great Barrier Reef, Queensland, Australia",
			"Marine life: green sea turtles, clownfish, dugongs, manta rays, parrotfish, giant clams, sea stars, dolphins, octopuses, whale sharks",
			"Coral types: staghorn coral, brain coral, sea fans, anemones",
			"Tropical Australian setting: warm turquoise waters, white sand beaches, palm trees",
			"Use Australian English spelling throughout (colour, favourite, mum, etc.)",
		},
		tone: "Magical, colourful, wonder-filled. The reef is vibrant and welcoming, never threatening. Make {{.Name}} feel like a guardian of the Great Barrier Reef.",
	},
	models.ThemeOutbackExplorer: {
		kind: "Australian outback adventure",
		beats: [models.StoryLength]string{
			"{{.Name}} finds a smooth, ancient red stone that begins to glow warm in their hand, and the world around them shimmers into the vast Australian outback",
			"{{.Name}} stands beneath an enormous red rock formation under a brilliant blue sky. A curious bilby with big ears pops up from a burrow and says hello",
			"The bilby leads {{.Name}} across red sand plains dotted with spinifex grass and desert oaks. They spot a thorny devil and a perentie goanna sunning on a rock",
			"At a desert waterhole, {{.Name}} meets a wise wedge-tailed eagle who explains that the ancient rock paintings nearby are fading, and with them, the stories of the land",
			"{{.Name}} and the bilby journey through a gorge with towering red rock walls, past ghost gums and desert wildflowers blooming after rain",
			"{{.Name}} uses their unique interests and imagination to help restore the colours and stories of the ancient rock art",
			"As the paintings glow with renewed colour, the outback comes alive with celebration: emus run across the plains, kangaroos bound under a sky turning orange and pink at sunset",
			"Night falls and {{.Name}} lies on the warm red earth gazing up at the most spectacular starry sky, the Milky Way blazing overhead. They return home with the red stone, a piece of the outback always with them",
		},
		setting: []string{
			"Australian outback: vast red desert plains, dramatic rock formations, gorges, waterholes",
			"Flora: spinifex grass, desert oaks, ghost gums, Sturt's desert pea, desert wildflowers",
			"Fauna: bilbies, wedge-tailed eagles, emus, red kangaroos, thorny devils, perentie goannas, dingoes (friendly)",
			"Features: ancient rock art, red earth, dramatic sunsets, brilliant starry skies, the Milky Way",
			"Use Australian English spelling throughout (colour, favourite, mum, etc.)",
		},
		tone: "Awe-inspiring, warm, vast. The outback is ancient and magnificent, never harsh or dangerous. Make {{.Name}} feel connected to the ancient heart of Australia.",
	},
	models.ThemeForestGuardian: {
		kind: "New Zealand native forest adventure",
		beats: [models.StoryLength]string{
			"{{.Name}} discovers a glowing silver fern frond on the edge of a New Zealand native bush. When they pick it up, the forest seems to whisper their name",
			"A small, shy kiwi bird waddles out from beneath the ferns and nudges {{.Name}}'s hand. It needs their help: the ancient forest is in trouble",
			"The kiwi leads {{.Name}} deeper into the bush, past towering ponga ferns and ancient moss-covered trees. A friendly fantail (piwakawaka) flits alongside them, fanning its tail",
			"They arrive at a massive kauri tree, the oldest tree in the forest, and meet a wise tuatara resting among its roots. The tuatara explains that a magical spring that feeds the forest has gone quiet",
			"{{.Name}} follows a stream through a glowworm cave, its ceiling twinkling with thousands of tiny blue-green lights like an underground sky of stars",
			"{{.Name}} uses their unique interests and creativity to awaken the magical spring and send fresh water flowing back through the forest",
			"The forest bursts with life! Tui birds sing from the treetops, the kauri tree stands taller, and kereru (wood pigeons) swoop through the canopy. The kiwi does a happy dance",
			"{{.Name}} emerges from the bush at dusk, the silver fern frond now a keepsake. They know that as a guardian of the forest, they can always return to this magical place",
		},
		setting: []string{
			"New Zealand native bush (forest): dense, lush, ancient, moss-covered",
			"Flora: kauri trees, ponga (silver fern/tree fern), rimu, rata, nikau palms, mosses and lichens",
			"Fauna: kiwi birds, tuatara, fantail (piwakawaka), tui, kereru (wood pigeon), weta (friendly), morepork (ruru owl)",
			"Features: glowworm caves, fern-lined streams, ancient tree roots, misty bush trails",
			"Use New Zealand English spelling throughout (colour, favourite, mum, etc.)",
			"Include te reo Maori names for creatures in brackets where natural (e.g., fantail/piwakawaka, wood pigeon/kereru)",
		},
		tone: "Enchanting, gentle, mysterious. The native bush is ancient and magical, full of wonder. Make {{.Name}} feel like a true kaitiaki (guardian) of Aotearoa's native forest.",
	},
}
